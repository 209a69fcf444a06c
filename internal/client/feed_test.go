package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/simplechat/internal/chatstore"
	"github.com/vovakirdan/simplechat/internal/composer"
	"github.com/vovakirdan/simplechat/internal/proto"
)

func composerRecord(content, user string) composer.MessageRecord {
	return composer.MessageRecord{
		Content:   content,
		Sender:    composer.Sender{Username: user},
		CreatedAt: "2024-05-01T10:00:00.000Z",
	}
}

func TestFeedHistoryAndMessages(t *testing.T) {
	st := chatstore.New(t.Context(), nil, "general", nil)
	t.Cleanup(st.Close)

	hist, err := proto.NewEvent(proto.EventNameHistory, proto.EventHistory{
		Room: "general",
		Messages: []proto.EventMessage{
			{ID: 1, Room: "general", User: "bob", Text: "first", CreatedAt: "2024-05-01T09:00:00.000Z"},
		},
	})
	require.NoError(t, err)
	consumed, err := Feed(st, hist)
	require.NoError(t, err)
	assert.True(t, consumed)

	msg, err := proto.NewEvent(proto.EventNameMessage, proto.EventMessage{ID: 2, Room: "general", User: "carol", Text: "second", CreatedAt: "2024-05-01T09:01:00.000Z"})
	require.NoError(t, err)
	consumed, err = Feed(st, msg)
	require.NoError(t, err)
	assert.True(t, consumed)

	// a replayed frame is deduplicated by server id
	_, _ = Feed(st, msg)

	got := st.Messages("general")
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[0].Record.Sender.Username)
	assert.Equal(t, "second", got[1].Record.Content)
	assert.Equal(t, "2024-05-01T09:01:00.000Z", got[1].Record.CreatedAt)

	joined, err := proto.NewEvent(proto.EventNameUserJoined, proto.EventUserJoined{Room: "general", User: "dave"})
	require.NoError(t, err)
	consumed, err = Feed(st, joined)
	require.NoError(t, err)
	assert.False(t, consumed)

	consumed, err = Feed(st, proto.NewError("forbidden", "nope"))
	require.NoError(t, err)
	assert.False(t, consumed)
}
