// Package chat holds the conversation domain: messages, session state, and
// the reconciliation of local state against server-held history.
package chat

import (
	"sort"
	"time"
)

// Role identifies the sender of a message. It is a closed two-variant tag:
// everything the server reports that is not a user message is treated as
// the advisor's.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Advisor"
	default:
		return string(r)
	}
}

// Message is a single turn of a conversation. Messages are immutable once
// created; transcripts only ever grow by strict append.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// SessionSummary is one row of the session list. Summaries are rebuilt
// wholesale on refresh, never patched.
type SessionSummary struct {
	ID        string
	Preview   string
	CreatedAt time.Time
}

// DefaultPreviewLength bounds session previews in runes.
const DefaultPreviewLength = 50

// emptyPreview labels sessions that have no user message yet.
const emptyPreview = "New conversation"

// SortMessages orders messages by timestamp ascending. The sort is stable
// so equal timestamps keep their insertion order. Callers sort even when the
// source looks ordered; the server does not guarantee it.
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}

// PreviewText derives a session preview from its first user message,
// truncated to limit runes. Sessions without a user message get a fixed
// placeholder.
func PreviewText(msgs []Message, limit int) string {
	if limit <= 0 {
		limit = DefaultPreviewLength
	}
	for _, m := range msgs {
		if m.Role != RoleUser {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) > limit {
			return string(runes[:limit])
		}
		return m.Content
	}
	return emptyPreview
}
