package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/degreedialog/dialog-go/internal/api"
)

func TestExtractSessionReturnsSortedMessages(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	raw := []api.HistorySession{{
		ID:        "abc123",
		CreatedAt: base,
		Messages: []api.HistoryMessage{
			// Server order is scrambled on purpose.
			{Role: "assistant", Content: "Hello", Timestamp: base.Add(time.Minute)},
			{Role: "user", Content: "Hi", Timestamp: base},
		},
	}}

	msgs := ExtractSession(raw, "abc123")

	require.Len(t, msgs, 2)
	assert.Equal(t, "Hi", msgs[0].Content)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "Hello", msgs[1].Content)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
}

func TestExtractSessionUnknownIDIsEmpty(t *testing.T) {
	raw := []api.HistorySession{{ID: "abc123"}}

	// A session the server does not have means "no history yet", not a fault.
	msgs := ExtractSession(raw, "missing")
	assert.Empty(t, msgs)
}

func TestExtractSessionEmptyHistory(t *testing.T) {
	assert.Empty(t, ExtractSession(nil, "abc123"))
}

func TestExtractSessionCollapsesUnknownRoles(t *testing.T) {
	ts := time.Now()
	raw := []api.HistorySession{{
		ID: "abc123",
		Messages: []api.HistoryMessage{
			{Role: "bot", Content: "Greetings", Timestamp: ts},
		},
	}}

	msgs := ExtractSession(raw, "abc123")
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
}

func TestExtractSessionPicksCorrectSession(t *testing.T) {
	ts := time.Now()
	raw := []api.HistorySession{
		{ID: "first", Messages: []api.HistoryMessage{{Role: "user", Content: "one", Timestamp: ts}}},
		{ID: "second", Messages: []api.HistoryMessage{{Role: "user", Content: "two", Timestamp: ts}}},
	}

	msgs := ExtractSession(raw, "second")
	require.Len(t, msgs, 1)
	assert.Equal(t, "two", msgs[0].Content)
}
