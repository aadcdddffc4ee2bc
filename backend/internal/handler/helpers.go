package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
	mw "github.com/itchan-dev/uniforum/shared/middleware"
)

const defaultPage int = 1

// caller returns the authenticated user or writes 401.
func caller(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return domain.User{}, false
	}
	return *user, true
}

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int64, error) {
	val, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return 0, internal_errors.Validation(fmt.Sprintf("invalid %s: must be an integer", paramName))
	}
	return val, nil
}

func idParam(r *http.Request, name string) (int64, error) {
	return parseIntParam(chi.URLParam(r, name), name+" id")
}

// forumParam reads {kind} and {location}. Location-less kinds accept any
// location segment, conventionally 0.
func forumParam(r *http.Request) (domain.ForumKind, domain.LocationId, error) {
	kind := domain.ParseForumKind(chi.URLParam(r, "kind"))
	if kind == domain.ForumUnknown {
		return kind, 0, internal_errors.Validation("Unknown forum kind")
	}
	location, err := parseIntParam(chi.URLParam(r, "location"), "location")
	if err != nil {
		return kind, 0, err
	}
	return kind, location, nil
}

// pageParam reads ?page=, defaulting to fallback when absent.
func pageParam(r *http.Request, fallback int) (int, error) {
	pageQuery := r.URL.Query().Get("page")
	if pageQuery == "" {
		return fallback, nil
	}
	page, err := strconv.Atoi(pageQuery)
	if err != nil {
		return 0, internal_errors.Validation("invalid page: must be an integer")
	}
	return page, nil
}
