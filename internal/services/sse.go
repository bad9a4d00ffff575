package services

import (
	"sync"
	"time"
)

// StreamEvent is the live-update form of a workflow event.
type StreamEvent struct {
	Event         string    `json:"event"`
	ProjectID     uint      `json:"project_id,omitempty"`
	ApplicationID uint      `json:"application_id,omitempty"`
	FeedbackID    uint      `json:"feedback_id,omitempty"`
	ReviewerID    uint      `json:"reviewer_id,omitempty"`
	XPAwarded     int       `json:"xp_awarded,omitempty"`
	LeveledUp     bool      `json:"leveled_up,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`

	ownerID        string
	reviewerUserID string
}

// StreamEvent returns the SSE payload for the task.
func (t *EventTask) StreamEvent() StreamEvent {
	return StreamEvent{
		Event:          t.Event,
		ProjectID:      t.ProjectID,
		ApplicationID:  t.ApplicationID,
		FeedbackID:     t.FeedbackID,
		ReviewerID:     t.ReviewerID,
		XPAwarded:      t.XPAwarded,
		LeveledUp:      t.LeveledUp,
		OccurredAt:     t.OccurredAt,
		ownerID:        t.OwnerID,
		reviewerUserID: t.ReviewerUserID,
	}
}

// concerns reports whether the event involves userID as owner or reviewer.
func (e StreamEvent) concerns(userID string) bool {
	return userID != "" && (e.ownerID == userID || e.reviewerUserID == userID)
}

type sseClient struct {
	userID string
	ch     chan StreamEvent
}

// SSEHub manages SSE client connections and per-user event delivery
type SSEHub struct {
	clients map[string]*sseClient
	mu      sync.RWMutex
}

// NewSSEHub creates a new SSE hub instance
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]*sseClient),
	}
}

// Subscribe registers a client for events concerning userID
func (h *SSEHub) Subscribe(clientID, userID string) <-chan StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Buffered so Publish never waits on a client
	ch := make(chan StreamEvent, 100)
	h.clients[clientID] = &sseClient{userID: userID, ch: ch}
	return ch
}

// Unsubscribe removes a client from the hub
func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.ch)
		delete(h.clients, clientID)
	}
}

// Publish delivers the event to every client it concerns
func (h *SSEHub) Publish(event StreamEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if !event.concerns(c.userID) {
			continue
		}
		select {
		case c.ch <- event:
		default:
			// slow client, drop
		}
	}
}

// ClientCount returns the number of connected clients
func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var (
	globalSSEHub *SSEHub
	sseHubOnce   sync.Once
)

// GetSSEHub returns the global SSE hub singleton
func GetSSEHub() *SSEHub {
	sseHubOnce.Do(func() {
		globalSSEHub = NewSSEHub()
	})
	return globalSSEHub
}
