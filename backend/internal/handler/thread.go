package handler

import (
	"net/http"

	"github.com/itchan-dev/uniforum/shared/api"
	"github.com/itchan-dev/uniforum/shared/domain"
	"github.com/itchan-dev/uniforum/shared/utils"
)

// GetThread serves a page of posts. Without ?page= it opens the page holding
// the caller's first unread post.
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	threadId, err := idParam(r, "thread")
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	page, err := pageParam(r, 0)
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}

	posts, err := h.thread.GetPostPage(r.Context(), user, threadId, page)
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	writeJSON(w, api.PostPageResponse{PostPage: posts})
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	threadId, err := idParam(r, "thread")
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	var body api.CreatePostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.RequestError(w, r, err)
		return
	}

	postId, err := h.post.Reply(r.Context(), user, domain.PostCreationData{
		ThreadId:   threadId,
		AuthorId:   user.Id,
		Subject:    body.Subject,
		Body:       body.Body,
		Attachment: body.Attachment,
	})
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, api.CreatePostResponse{Id: postId})
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	threadId, err := idParam(r, "thread")
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}

	if err := h.thread.Remove(r.Context(), user, threadId); err != nil {
		utils.RequestError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Cut(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	threadId, err := idParam(r, "thread")
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}

	if err := h.clipboard.Cut(r.Context(), user, threadId); err != nil {
		utils.RequestError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetClipboard(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}

	entry, err := h.clipboard.Get(r.Context(), user)
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	writeJSON(w, api.ClipboardResponse{ClipboardEntry: entry})
}
