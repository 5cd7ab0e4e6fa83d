// Package syncbus broadcasts a payload-less "content changed" marker to
// every other running instance sharing a profile. Receivers re-read full
// state from the store; the bus itself is never a source of truth, so a
// missed event self-heals on the next read.
package syncbus

import "context"

// Event is the single message shape carried on the channel.
type Event struct {
	Type   string `json:"type"`
	Origin string `json:"origin"`
}

// EventContentRefresh is the only event type currently published.
const EventContentRefresh = "CONTENT_REFRESH"

// Bus delivers change notifications at most once per open subscriber and
// never back to the publishing instance.
type Bus interface {
	// Publish broadcasts a content-changed marker to every other
	// subscriber on the same profile channel.
	Publish(ctx context.Context) error
	// Subscribe registers handler to run once per received event and
	// returns an unsubscribe function. Unsubscribe must be called when the
	// listener is torn down and is safe to call more than once.
	Subscribe(handler func()) (func(), error)
	Close() error
}

// NoopBus is the degraded-mode bus used when the broadcast transport is
// unavailable. Single-instance operation stays correct; cross-instance
// refresh is silently lost.
type NoopBus struct{}

func (NoopBus) Publish(context.Context) error    { return nil }
func (NoopBus) Subscribe(func()) (func(), error) { return func() {}, nil }
func (NoopBus) Close() error                     { return nil }
