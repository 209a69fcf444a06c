package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/simplechat/internal/proto"
	"github.com/vovakirdan/simplechat/internal/store"
)

// ChatStore is what the direct chat endpoints need from storage.
type ChatStore interface {
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
	GetOrCreateDirectRoom(ctx context.Context, userA, userB int64) (*store.Room, error)
	ListMessages(ctx context.Context, roomID int64, limit int, beforeID *int64) ([]*store.Message, error)
}

// ChatHandlers serves direct conversation history.
type ChatHandlers struct {
	store        ChatStore
	historyLimit int
	log          *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(st ChatStore, historyLimit int, logger *zerolog.Logger) *ChatHandlers {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &ChatHandlers{
		store:        st,
		historyLimit: historyLimit,
		log:          logger,
	}
}

// GetMessages returns the direct room shared with :username and its latest
// messages, oldest first. The room is created on first use.
// GET /api/chat/get-messages/:username
func (h *ChatHandlers) GetMessages(c *gin.Context) {
	uid, self, ok := requireUser(c)
	if !ok {
		return
	}

	username := c.Param("username")
	if username == self {
		fail(c, http.StatusBadRequest, "cannot chat with yourself")
		return
	}

	ctx := c.Request.Context()
	peer, err := h.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error().Err(err).Str("username", username).Msg("failed to get user")
		failInternal(c)
		return
	}

	room, err := h.store.GetOrCreateDirectRoom(ctx, uid, peer.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Int64("peer_id", peer.ID).Msg("failed to open direct room")
		failInternal(c)
		return
	}

	msgs, err := h.store.ListMessages(ctx, room.ID, h.historyLimit, nil)
	if err != nil {
		h.log.Error().Err(err).Str("room", room.Name).Msg("failed to list messages")
		failInternal(c)
		return
	}

	c.JSON(http.StatusOK, proto.EventHistory{
		Room:     room.Name,
		Messages: storedMessages(room.Name, msgs),
	})
}
