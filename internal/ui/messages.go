package ui

import (
	"heroscope/internal/domain"
)

// ViewModelMsg delivers a new view model snapshot to the UI
type ViewModelMsg struct {
	ViewModel domain.ViewModel
}

// FetchFailedMsg reports a failed fetch; the page itself shows empty
type FetchFailedMsg struct {
	Params domain.QueryParams
	Err    error
}

// heroPagerMsg contains the result of the hero detail pager
type heroPagerMsg struct {
	heroID int
	err    error
}

// pauseRenderingMsg signals that an external pager owns the terminal
type pauseRenderingMsg struct{}

// resumeRenderingMsg signals that the pager has exited
type resumeRenderingMsg struct{}
