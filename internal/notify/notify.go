// Package notify renders import outcomes to the user.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Notifier mirrors job.Notifier so implementations here need no import of the core.
type Notifier interface {
	NotifySuccess(message string)
	NotifyWarning(message string)
	NotifyError(message string)
}

// Console writes styled one-line messages to w.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	base := lipgloss.NewStyle()
	return &Console{
		w:       w,
		success: base.Foreground(lipgloss.Color("#22C55E")),
		warning: base.Foreground(lipgloss.Color("#F59E0B")),
		err:     base.Foreground(lipgloss.Color("#EF4444")),
	}
}

func (c *Console) NotifySuccess(message string) { c.write(c.success, "✓ ", message) }
func (c *Console) NotifyWarning(message string) { c.write(c.warning, "! ", message) }
func (c *Console) NotifyError(message string)   { c.write(c.err, "✗ ", message) }

func (c *Console) write(style lipgloss.Style, prefix, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, style.Render(prefix+message))
}

// Log records notifications through zap.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a Log notifier.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

func (l *Log) NotifySuccess(message string) { l.logger.Info("notify", zap.String("message", message)) }
func (l *Log) NotifyWarning(message string) { l.logger.Warn("notify", zap.String("message", message)) }
func (l *Log) NotifyError(message string)   { l.logger.Error("notify", zap.String("message", message)) }

// Multi fans every notification out to all of its members.
type Multi []Notifier

func (m Multi) NotifySuccess(message string) {
	for _, n := range m {
		n.NotifySuccess(message)
	}
}

func (m Multi) NotifyWarning(message string) {
	for _, n := range m {
		n.NotifyWarning(message)
	}
}

func (m Multi) NotifyError(message string) {
	for _, n := range m {
		n.NotifyError(message)
	}
}
