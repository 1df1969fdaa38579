package chat

import (
	"context"
	"log/slog"

	"github.com/degreedialog/dialog-go/internal/api"
)

// Reconciler fetches server-held history and extracts per-session message
// sequences from it.
type Reconciler struct {
	client *api.Client
	logger *slog.Logger
}

// NewReconciler creates a reconciler over the given API client.
func NewReconciler(client *api.Client, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{client: client, logger: logger}
}

// FetchHistory returns every session of the current identity with its full
// message list, in one unpaginated call.
func (r *Reconciler) FetchHistory(ctx context.Context) ([]api.HistorySession, error) {
	return r.client.FetchHistory(ctx)
}

// ExtractSession returns the ordered messages of one session from a fetched
// history. An id the server does not report yields an empty sequence, not an
// error: a session the client expects but the server lacks means "no history
// yet". The result is always re-sorted by timestamp; ties keep server order.
func ExtractSession(raw []api.HistorySession, sessionID string) []Message {
	for _, session := range raw {
		if session.ID != sessionID {
			continue
		}
		msgs := make([]Message, 0, len(session.Messages))
		for _, m := range session.Messages {
			msgs = append(msgs, Message{
				Role:      roleFromWire(m.Role),
				Content:   m.Content,
				Timestamp: m.Timestamp,
			})
		}
		SortMessages(msgs)
		return msgs
	}
	return nil
}

// roleFromWire collapses server role strings onto the closed Role tag.
func roleFromWire(role string) Role {
	if role == string(RoleUser) {
		return RoleUser
	}
	return RoleAssistant
}
