package api

import (
	"github.com/itchan-dev/uniforum/shared/domain"
)

type ForumListResponse struct {
	Forums []domain.ForumSummary `json:"forums"`
}

type ClipboardResponse struct {
	domain.ClipboardEntry
}

type PasteResponse struct {
	domain.PasteResult
}

type RemoveForumsResponse struct {
	ThreadsRemoved int `json:"threads_removed"`
}
