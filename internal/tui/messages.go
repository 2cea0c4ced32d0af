package tui

import "github.com/utafrali/TranscriptSearch/internal/domain"

// searchDoneMsg carries a full search reply back to the event loop.
type searchDoneMsg struct {
	req *domain.SearchRequest
	raw *domain.RawResponse
	err error
}

// suggestDoneMsg carries an autocomplete reply back to the event loop.
type suggestDoneMsg struct {
	req *domain.SearchRequest
	raw *domain.RawResponse
	err error
}
