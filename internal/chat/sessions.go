package chat

import (
	"context"
	"log/slog"
	"sort"

	"github.com/degreedialog/dialog-go/internal/api"
)

// SessionList owns the materialized list of past sessions. Each refresh
// rebuilds the list wholesale from a fresh history fetch; nothing is merged
// or patched incrementally.
type SessionList struct {
	recon      *Reconciler
	logger     *slog.Logger
	previewLen int

	sessions []SessionSummary

	// stale is set when the list no longer reflects the server: before the
	// first refresh and after a draft conversation is promoted.
	stale bool

	// onCleared returns the conversation controller to its idle state after
	// a successful destructive clear.
	onCleared func()
}

// NewSessionList creates an empty list over the given reconciler.
func NewSessionList(recon *Reconciler, previewLen int, logger *slog.Logger) *SessionList {
	if logger == nil {
		logger = slog.Default()
	}
	if previewLen <= 0 {
		previewLen = DefaultPreviewLength
	}
	return &SessionList{
		recon:      recon,
		logger:     logger,
		previewLen: previewLen,
		stale:      true,
	}
}

// MarkStale flags the list for a refresh, typically on a "session created"
// notification.
func (l *SessionList) MarkStale() {
	l.stale = true
}

// Stale reports whether the list needs a refresh before display.
func (l *SessionList) Stale() bool {
	return l.stale
}

// OnCleared registers the hook run after ClearAll succeeds.
func (l *SessionList) OnCleared(fn func()) {
	l.onCleared = fn
}

// Sessions returns the current summaries, newest first.
func (l *SessionList) Sessions() []SessionSummary {
	return l.sessions
}

// Refresh fetches all history and replaces the list atomically. Sessions
// are ordered newest-first by creation time.
func (l *SessionList) Refresh(ctx context.Context) error {
	raw, err := l.recon.FetchHistory(ctx)
	if err != nil {
		return err
	}
	l.Replace(BuildSummaries(raw, l.previewLen))
	return nil
}

// Replace swaps in a freshly built list. Split from Refresh so event-loop
// hosts can fetch off-loop and apply the result on-loop.
func (l *SessionList) Replace(summaries []SessionSummary) {
	l.sessions = summaries
	l.stale = false
}

// BuildSummaries derives the session list from a fetched history,
// newest-first by creation time.
func BuildSummaries(raw []api.HistorySession, previewLen int) []SessionSummary {
	summaries := make([]SessionSummary, 0, len(raw))
	for _, session := range raw {
		summaries = append(summaries, SessionSummary{
			ID:        session.ID,
			Preview:   PreviewText(ExtractSession(raw, session.ID), previewLen),
			CreatedAt: session.CreatedAt,
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}

// ClearAll deletes every session server-side, empties the local list, and
// resets the active conversation through the registered hook.
func (l *SessionList) ClearAll(ctx context.Context) error {
	if err := l.recon.client.ClearHistory(ctx); err != nil {
		return err
	}
	l.sessions = nil
	l.logger.Info("chat history cleared")
	if l.onCleared != nil {
		l.onCleared()
	}
	return nil
}
