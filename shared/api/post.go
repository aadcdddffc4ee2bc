package api

import (
	"github.com/itchan-dev/uniforum/shared/domain"
)

// Request DTOs

type CreatePostRequest struct {
	Subject    string  `json:"subject,omitempty"`
	Body       string  `json:"body" validate:"required"`
	Attachment *string `json:"attachment,omitempty"`
}

// Response DTOs

type PostResponse struct {
	domain.PostView
}

type CreatePostResponse struct {
	Id int64 `json:"id"`
}

type RemovePostResponse struct {
	ThreadId      int64 `json:"thread_id"`
	ThreadDeleted bool  `json:"thread_deleted"`
}
