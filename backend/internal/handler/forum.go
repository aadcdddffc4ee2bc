package handler

import (
	"net/http"

	"github.com/itchan-dev/uniforum/shared/api"
	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
	"github.com/itchan-dev/uniforum/shared/utils"
)

func (h *Handler) GetForums(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}

	forums, err := h.forum.List(r.Context(), user)
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	if forums == nil {
		forums = []domain.ForumSummary{}
	}
	writeJSON(w, api.ForumListResponse{Forums: forums})
}

func (h *Handler) GetThreads(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	kind, location, err := forumParam(r)
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	page, err := pageParam(r, defaultPage)
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	order, err := domain.ParseThreadOrder(r.URL.Query().Get("order"))
	if err != nil {
		utils.RequestError(w, r, internal_errors.Validation(err.Error()))
		return
	}

	forum := domain.Forum{Kind: kind, Location: location}
	threads, err := h.thread.ListPage(r.Context(), user, forum, order, page)
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	writeJSON(w, api.ThreadPageResponse{ThreadPage: threads})
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	kind, location, err := forumParam(r)
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	var body api.CreateThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.RequestError(w, r, err)
		return
	}

	creation := domain.ThreadCreationData{
		Forum: domain.Forum{Kind: kind, Location: location},
		OpPost: domain.PostCreationData{
			AuthorId:   user.Id,
			Subject:    body.OpPost.Subject,
			Body:       body.OpPost.Body,
			Attachment: body.OpPost.Attachment,
		},
	}
	threadId, postId, err := h.thread.Start(r.Context(), user, creation)
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, api.CreateThreadResponse{Id: threadId, OpPostId: postId})
}

func (h *Handler) Paste(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	kind, location, err := forumParam(r)
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}

	result, err := h.clipboard.Paste(r.Context(), user, domain.Forum{Kind: kind, Location: location})
	if err != nil {
		utils.RequestError(w, r, err)
		return
	}
	writeJSON(w, api.PasteResponse{PasteResult: result})
}
