package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/simplechat/internal/store"
)

const minSearchQuery = 2

// UserHandlers provides HTTP handlers for user operations.
type UserHandlers struct {
	store store.UserStore
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.UserStore, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store: st,
		log:   logger,
	}
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// SearchUsers handles searching for users. The caller is never part of the result.
// GET /api/users/search?q=query
func (h *UserHandlers) SearchUsers(c *gin.Context) {
	uid, _, ok := requireUser(c)
	if !ok {
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if len([]rune(query)) < minSearchQuery {
		fail(c, http.StatusBadRequest, "search query must be at least 2 characters")
		return
	}

	users, err := h.store.SearchUsers(c.Request.Context(), query)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("failed to search users")
		failInternal(c)
		return
	}

	others := lo.Filter(users, func(u *store.User, _ int) bool { return u.ID != uid })
	c.JSON(http.StatusOK, lo.Map(others, func(u *store.User, _ int) UserResponse { return userResponse(u) }))
}
