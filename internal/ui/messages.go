package ui

import "importctl/internal/progress"

type mountedMsg struct {
	Pending bool
}

type submittedMsg struct {
	Err error
}

type stateMsg struct {
	S progress.State
}

type noticeMsg struct {
	N notice
}

// loopDoneMsg is sent once the polling loop has exited.
type loopDoneMsg struct{}

type allDoneMsg struct{}
