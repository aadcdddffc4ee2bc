package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetThread(t *testing.T) {
	t.Run("without page opens first unread", func(t *testing.T) {
		m := newMocks()
		m.thread.MockGetPostPage = func(ctx context.Context, caller domain.User, id domain.ThreadId, page int) (domain.PostPage, error) {
			assert.Equal(t, int64(42), id)
			assert.Equal(t, 0, page)
			return domain.PostPage{
				Thread: domain.Thread{Id: id},
				Posts:  []domain.PostView{{Post: domain.Post{Id: 1, Body: "hi"}}},
			}, nil
		}
		rr := serve(t, setupRouter(m, &testUser), http.MethodGet, "/v1/threads/42", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"Body":"hi"`)
	})

	t.Run("explicit page", func(t *testing.T) {
		m := newMocks()
		m.thread.MockGetPostPage = func(ctx context.Context, caller domain.User, id domain.ThreadId, page int) (domain.PostPage, error) {
			assert.Equal(t, 2, page)
			return domain.PostPage{}, nil
		}
		rr := serve(t, setupRouter(m, &testUser), http.MethodGet, "/v1/threads/42?page=2", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rr := serve(t, setupRouter(newMocks(), &testUser), http.MethodGet, "/v1/threads/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("not found", func(t *testing.T) {
		m := newMocks()
		m.thread.MockGetPostPage = func(ctx context.Context, caller domain.User, id domain.ThreadId, page int) (domain.PostPage, error) {
			return domain.PostPage{}, internal_errors.NotFound("Thread")
		}
		rr := serve(t, setupRouter(m, &testUser), http.MethodGet, "/v1/threads/42", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestCreatePost(t *testing.T) {
	t.Run("successful reply", func(t *testing.T) {
		m := newMocks()
		m.post.MockReply = func(ctx context.Context, caller domain.User, data domain.PostCreationData) (domain.PostId, error) {
			assert.Equal(t, int64(42), data.ThreadId)
			assert.Equal(t, testUser.Id, data.AuthorId)
			assert.Equal(t, "answer", data.Body)
			assert.Nil(t, data.Attachment)
			return 77, nil
		}
		rr := serve(t, setupRouter(m, &testUser), http.MethodPost, "/v1/threads/42/posts", []byte(`{"body": "answer"}`))

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.JSONEq(t, `{"id":77}`, rr.Body.String())
	})

	t.Run("storage failure is a 500 without details", func(t *testing.T) {
		m := newMocks()
		m.post.MockReply = func(ctx context.Context, caller domain.User, data domain.PostCreationData) (domain.PostId, error) {
			return 0, errors.New("failed to insert post: connection reset")
		}
		rr := serve(t, setupRouter(m, &testUser), http.MethodPost, "/v1/threads/42/posts", []byte(`{"body": "answer"}`))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "connection reset")
	})
}

func TestDeleteThread(t *testing.T) {
	t.Run("moderator", func(t *testing.T) {
		m := newMocks()
		m.thread.MockRemove = func(ctx context.Context, caller domain.User, id domain.ThreadId) error {
			assert.Equal(t, int64(42), id)
			return nil
		}
		rr := serve(t, setupRouter(m, &testUser), http.MethodDelete, "/v1/threads/42", nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("not a moderator", func(t *testing.T) {
		m := newMocks()
		m.thread.MockRemove = func(ctx context.Context, caller domain.User, id domain.ThreadId) error {
			return internal_errors.Access("Only moderators of this forum can delete threads")
		}
		rr := serve(t, setupRouter(m, &testUser), http.MethodDelete, "/v1/threads/42", nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestClipboardHandlers(t *testing.T) {
	t.Run("cut", func(t *testing.T) {
		m := newMocks()
		var cut domain.ThreadId
		m.clipboard.MockCut = func(ctx context.Context, caller domain.User, threadId domain.ThreadId) error {
			cut = threadId
			return nil
		}
		rr := serve(t, setupRouter(m, &testUser), http.MethodPost, "/v1/clipboard/42", nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, int64(42), cut)
	})

	t.Run("get empty clipboard", func(t *testing.T) {
		m := newMocks()
		m.clipboard.MockGet = func(ctx context.Context, caller domain.User) (domain.ClipboardEntry, error) {
			return domain.ClipboardEntry{}, internal_errors.NotFound("Clipboard entry")
		}
		rr := serve(t, setupRouter(m, &testUser), http.MethodGet, "/v1/clipboard", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("get entry", func(t *testing.T) {
		m := newMocks()
		m.clipboard.MockGet = func(ctx context.Context, caller domain.User) (domain.ClipboardEntry, error) {
			return domain.ClipboardEntry{UserId: caller.Id, ThreadId: 42}, nil
		}
		rr := serve(t, setupRouter(m, &testUser), http.MethodGet, "/v1/clipboard", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"ThreadId":42`)
	})
}
