package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/degreedialog/dialog-go/internal/api"
)

// FallbackReply is appended as the advisor's turn whenever a send fails for
// any reason other than authorization, so no user message is ever left
// unanswered in the transcript.
const FallbackReply = "Sorry, something went wrong. Please try again."

// Conversation owns the active session and its transcript. All methods are
// meant to be called from a single event loop; network round-trips happen
// between a Begin*/Complete* pair, with the caller running the blocking part
// off-loop.
//
// An empty session id means a draft: a conversation the server has not
// persisted yet. The first completed send promotes the draft by adopting the
// server-assigned id, after which the session's identity never changes.
type Conversation struct {
	client *api.Client
	logger *slog.Logger
	now    func() time.Time

	sessionID      string
	messages       []Message
	sendInFlight   bool
	historyLoading bool
	deauthorized   bool

	// loadGen keys history loads to the session that was active at issue
	// time; completions with a stale key are discarded.
	loadGen int

	onSessionCreated func(id string)
}

// NewConversation creates an idle controller with no active session.
func NewConversation(client *api.Client, logger *slog.Logger) *Conversation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conversation{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// OnSessionCreated registers the single listener notified when a draft
// conversation is promoted to a persisted session.
func (c *Conversation) OnSessionCreated(fn func(id string)) {
	c.onSessionCreated = fn
}

// SessionID returns the active session id, empty for a draft.
func (c *Conversation) SessionID() string { return c.sessionID }

// Messages returns the current transcript.
func (c *Conversation) Messages() []Message { return c.messages }

// Sending reports whether a send is in flight.
func (c *Conversation) Sending() bool { return c.sendInFlight }

// LoadingHistory reports whether a history load is in flight.
func (c *Conversation) LoadingHistory() bool { return c.historyLoading }

// CanSend reports whether SendBegin would accept a message. Sends are only
// accepted when the transcript is settled: not while another send or a
// history load is in flight, and not after a revoked authorization.
func (c *Conversation) CanSend() bool {
	return !c.sendInFlight && !c.historyLoading && !c.deauthorized
}

// Reset returns the controller to its idle, empty state: no session, no
// transcript. Any in-flight history load becomes stale.
func (c *Conversation) Reset() {
	c.loadGen++
	c.sessionID = ""
	c.messages = nil
	c.historyLoading = false
}

// LoadBegin switches the active session and discards the transcript. The
// returned generation must be handed back to LoadComplete; a switch in the
// meantime invalidates it. Selecting the empty id is "new chat" and needs no
// load at all, signalled by ok=false.
func (c *Conversation) LoadBegin(sessionID string) (gen int, ok bool) {
	c.loadGen++
	c.sessionID = sessionID
	c.messages = nil
	if sessionID == "" {
		c.historyLoading = false
		return c.loadGen, false
	}
	c.historyLoading = true
	return c.loadGen, true
}

// LoadComplete applies a finished history load. Results keyed to a stale
// generation are discarded silently: the user has moved on and the data
// belongs to a session no longer displayed. A failed load yields an empty
// transcript — missing history is not user-blocking, so the error is only
// logged.
func (c *Conversation) LoadComplete(gen int, msgs []Message, err error) {
	if gen != c.loadGen {
		c.logger.Debug("discarding stale history load", "session_id", c.sessionID)
		return
	}
	c.historyLoading = false
	if err != nil {
		c.logger.Warn("failed to load chat history", "session_id", c.sessionID, "error", err)
		c.messages = nil
		return
	}
	c.messages = msgs
}

// LoadHistory runs a full load synchronously: Begin, fetch, extract,
// Complete. Used by callers without their own event loop.
func (c *Conversation) LoadHistory(ctx context.Context, recon *Reconciler, sessionID string) error {
	gen, ok := c.LoadBegin(sessionID)
	if !ok {
		return nil
	}
	raw, err := recon.FetchHistory(ctx)
	if err != nil {
		c.LoadComplete(gen, nil, err)
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		return nil
	}
	c.LoadComplete(gen, ExtractSession(raw, sessionID), nil)
	return nil
}

// SendBegin validates and optimistically appends the user's message. It
// returns false, with no state change, for blank input, an in-flight send
// or history load, or a revoked authorization. On true, the caller must
// perform exactly one SendMessage call with the returned session id and
// report back through SendComplete.
func (c *Conversation) SendBegin(text string) (sessionID string, ok bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if !c.CanSend() {
		return "", false
	}
	c.messages = append(c.messages, Message{
		Role:      RoleUser,
		Content:   text,
		Timestamp: c.now(),
	})
	c.sendInFlight = true
	return c.sessionID, true
}

// SendComplete applies the outcome of a send. The response is appended to
// whatever transcript is current at resolution time, even if the user
// switched sessions while the call was in flight — a known staleness hazard
// kept for parity with the service's own client.
//
// On success the advisor's reply is appended, and a newly-minted session id
// is adopted if the conversation was still a draft — the sole mechanism by
// which a draft becomes persisted. On ErrUnauthorized, sending stays
// disabled until re-authentication; the optimistic message remains. Every
// other failure appends the fixed fallback reply.
func (c *Conversation) SendComplete(resp *api.ChatResponse, err error) {
	c.sendInFlight = false

	switch {
	case err == nil:
		c.messages = append(c.messages, Message{
			Role:      RoleAssistant,
			Content:   resp.Response,
			Timestamp: c.now(),
		})
		if resp.SessionID != "" && c.sessionID == "" {
			c.sessionID = resp.SessionID
			c.logger.Info("session created", "session_id", resp.SessionID)
			if c.onSessionCreated != nil {
				c.onSessionCreated(resp.SessionID)
			}
		}

	case errors.Is(err, api.ErrUnauthorized):
		c.deauthorized = true
		c.logger.Warn("send rejected: authorization revoked")

	default:
		c.logger.Warn("send failed", "error", err)
		c.messages = append(c.messages, Message{
			Role:      RoleAssistant,
			Content:   FallbackReply,
			Timestamp: c.now(),
		})
	}
}

// Send runs a full send synchronously. It returns ErrUnauthorized so the
// caller's coordinator can de-authenticate; other failures are absorbed into
// the transcript as the fallback reply.
func (c *Conversation) Send(ctx context.Context, text string) error {
	sessionID, ok := c.SendBegin(text)
	if !ok {
		return nil
	}
	resp, err := c.client.SendMessage(ctx, text, sessionID)
	c.SendComplete(resp, err)
	if errors.Is(err, api.ErrUnauthorized) {
		return err
	}
	return nil
}

// Reauthorized re-enables sending after external re-authentication.
func (c *Conversation) Reauthorized() {
	c.deauthorized = false
}
