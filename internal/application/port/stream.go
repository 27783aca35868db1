package port

import (
	"context"

	"livedesk/internal/domain"
)

// StreamEventKind tags the variants a stream transport can emit.
type StreamEventKind int

const (
	StreamConnected StreamEventKind = iota
	StreamDisconnected
	StreamInitialState
	StreamUpdate
)

func (k StreamEventKind) String() string {
	switch k {
	case StreamConnected:
		return "connected"
	case StreamDisconnected:
		return "disconnected"
	case StreamInitialState:
		return "initial_state"
	case StreamUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// StreamPayload carries the per-collection arrays of a data message.
// A nil slice pointer means the collection was absent from the frame:
// for update messages absent collections leave prior stream state
// untouched, while initial_state replaces everything.
type StreamPayload struct {
	Positions  *[]domain.StreamQuote
	Strategies *[]domain.StreamRollup
	Portfolios *[]domain.StreamRollup
}

// StreamEvent is the typed message-passing boundary between the
// transport and the engine. Payload is nil for connectivity events.
type StreamEvent struct {
	Kind    StreamEventKind
	Payload *StreamPayload
}

// Stream is a push transport that manages its own connection lifecycle
// (heartbeat, reconnect) and narrows wire frames to typed events before
// they reach the merge logic. Cancelling ctx is the intentional
// shutdown: it suppresses reconnection and closes the event channel.
type Stream interface {
	Name() string
	Events(ctx context.Context) (<-chan StreamEvent, error)
}
