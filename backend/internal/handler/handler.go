package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/itchan-dev/uniforum/backend/internal/service"
	"github.com/itchan-dev/uniforum/shared/config"
	"github.com/itchan-dev/uniforum/shared/logger"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	forum      service.ForumService
	thread     service.ThreadService
	post       service.PostService
	moderation service.ModerationService
	clipboard  service.ClipboardService
	purge      service.PurgeService
	health     HealthChecker
	cfg        *config.Config
}

func New(
	forum service.ForumService,
	thread service.ThreadService,
	post service.PostService,
	moderation service.ModerationService,
	clipboard service.ClipboardService,
	purge service.PurgeService,
	health HealthChecker,
	cfg *config.Config,
) *Handler {
	return &Handler{
		forum:      forum,
		thread:     thread,
		post:       post,
		moderation: moderation,
		clipboard:  clipboard,
		purge:      purge,
		health:     health,
		cfg:        cfg,
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Error("failed to encode response", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
	w.Write([]byte("\n"))
}
