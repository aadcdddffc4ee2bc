package api

import (
	"github.com/itchan-dev/uniforum/shared/domain"
)

// Request DTOs

type CreateThreadRequest struct {
	OpPost CreatePostRequest `json:"op_post"`
}

// Response DTOs

type CreateThreadResponse struct {
	Id       int64 `json:"id"`
	OpPostId int64 `json:"op_post_id"`
}

// ThreadPageResponse is one page of a forum's thread listing.
type ThreadPageResponse struct {
	domain.ThreadPage
}

// PostPageResponse is one page of a thread's posts.
type PostPageResponse struct {
	domain.PostPage
}
