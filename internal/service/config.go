// Package service wraps core.Core in a single-worker command queue, so
// multiple goroutines can submit orders against one book without the
// book itself needing any locking.
package service

// Config tunes the buffering of a Service. The zero value is not
// usable; construct one with DefaultConfig and override only what you
// need.
type Config struct {
	// CommandBuffer is the depth of the channel callers enqueue
	// commands on. Once full, a caller's request blocks (or its context
	// expires) rather than the command processor ever running behind.
	CommandBuffer int

	// TradeTapeSize is how many of the most recent trades Service keeps
	// available via TradesLast, independent of whatever a caller's own
	// Events subscription has consumed.
	TradeTapeSize int

	// EventBuffer is the depth of the channel the event dispatcher
	// forwards core.Event values into internally before they reach a
	// subscriber.
	EventBuffer int

	// ExternalEventBuffer is the depth of the channel handed to
	// Events() subscribers. If DropExternalEvents is true and a
	// subscriber falls behind, new events are dropped (counted by
	// DroppedExternalEvents) rather than blocking the book.
	ExternalEventBuffer int
	DropExternalEvents  bool
}

// DefaultConfig returns sane buffer sizes for a single book under
// moderate concurrent load.
func DefaultConfig() Config {
	return Config{
		CommandBuffer:       256,
		TradeTapeSize:       1024,
		EventBuffer:         256,
		ExternalEventBuffer: 256,
		DropExternalEvents:  true,
	}
}
