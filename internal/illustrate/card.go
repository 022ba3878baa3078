package illustrate

import (
	"context"
	"log/slog"
	"sync/atomic"
)

type State int32

const (
	Unrequested State = iota
	InFlight
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Unrequested:
		return "unrequested"
	case InFlight:
		return "in_flight"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Card is the illustration latch for one recipe card. It asks for a picture at
// most once in its lifetime, no matter how often it is opened.
type Card struct {
	state atomic.Int32
	url   atomic.Pointer[string]
}

// Snapshot returns the state and, once resolved, the URL.
func (c *Card) Snapshot() (State, string) {
	s := State(c.state.Load())
	if s != Resolved {
		return s, ""
	}
	return s, *c.url.Load()
}

// Fetch issues the request if the card has never asked before. Every other
// caller gets the current snapshot without a request. Failures are logged and
// leave the card on its placeholder for good.
func (c *Card) Fetch(ctx context.Context, ill Illustrator, name string, ingredients []string) (State, string) {
	if !c.state.CompareAndSwap(int32(Unrequested), int32(InFlight)) {
		return c.Snapshot()
	}

	// the latch is per card, not per page load
	url, err := ill.Illustrate(context.WithoutCancel(ctx), name, ingredients)
	if err != nil || url == nil || *url == "" {
		if err != nil {
			slog.WarnContext(ctx, "illustration failed", "recipe", name, "error", err)
		}
		c.state.Store(int32(Failed))
		return Failed, ""
	}
	c.url.Store(url)
	c.state.Store(int32(Resolved))
	return Resolved, *url
}
