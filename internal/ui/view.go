package ui

import (
	"fmt"
	"strings"
	"time"

	"importctl/internal/progress"
	"importctl/internal/util/format"
)

func (m Model) viewHeader() string {
	title := m.styles.Title.Render("importctl · data import")
	file := "resuming the current import"
	if m.fileName != "" {
		file = truncate(m.fileName, 48)
		if m.fileSize != "" {
			file += " (" + m.fileSize + ")"
		}
	}
	sub := m.styles.FileName.Render(file) + m.styles.Subtitle.Render(" • q: stop watching")
	return title + "\n" + sub
}

func (m Model) viewBody() string {
	if !m.mounted {
		return m.styles.Box.Render(m.styles.Spinner.Render(m.spinner.View())+" "+m.styles.Faint.Render("Checking for a running import…")) + "\n"
	}

	s := m.state
	var line string
	switch s.Phase {
	case progress.PhaseUploading:
		line = m.styles.Upload.Render("uploading") + "\n" +
			fmt.Sprintf("%s %3d%%", m.bar.ViewAs(float64(s.UploadPercent)/100.0), s.UploadPercent) + "\n" +
			m.styles.Faint.Render(format.Transfer(s.UploadedBytes, s.UploadTotal))
	case progress.PhaseAwaitingProcessing:
		line = m.styles.Upload.Render("uploaded") + "\n" +
			m.styles.Spinner.Render(m.spinner.View()) + " " + m.styles.Info.Render("Waiting for the server to accept the file")
	case progress.PhasePolling:
		line = m.styles.Process.Render("processing") + "\n" +
			m.styles.Spinner.Render(m.spinner.View()) + " " +
			m.styles.Info.Render(fmt.Sprintf("Processing on the server • %s elapsed", elapsed(s.ElapsedSeconds)))
	case progress.PhaseSucceeded:
		line = m.styles.Success.Render(fmt.Sprintf("✓ Import completed (%s)", elapsed(s.ElapsedSeconds)))
	case progress.PhaseFailed:
		line = m.styles.Error.Render("✗ " + s.FailureReason)
	default:
		if m.outcome.Interrupted {
			line = m.styles.Faint.Render("Stopped")
		} else {
			line = m.styles.Faint.Render("Idle")
		}
	}
	if m.outcome.Interrupted && !s.Terminal() {
		line += "\n" + m.styles.Warning.Render(msgStopped)
	}
	return m.styles.Box.Render(line) + "\n"
}

func (m Model) viewNotices() string {
	if len(m.notices) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, n := range m.notices {
		switch n.Kind {
		case noticeSuccess:
			b.WriteString(m.styles.Success.Render("✓ " + n.Text))
		case noticeWarning:
			b.WriteString(m.styles.Warning.Render("! " + n.Text))
		case noticeError:
			b.WriteString(m.styles.Error.Render("✗ " + n.Text))
		default:
			b.WriteString(m.styles.Faint.Render("• " + n.Text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func elapsed(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
