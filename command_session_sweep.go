package revieweat

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type SweepSessionsMessage struct{}

func (e SweepSessionsMessage) Type() string { return "session.sweep" }

// SweepSessionsHandler batch-clears expired session mirrors. Safe to run
// from a ticker and from the operational endpoint at the same time: the
// sweep predicate only matches already expired rows, so overlapping runs
// and concurrent logins settle on last-writer-wins.
type SweepSessionsHandler struct {
	sessions *SessionMirror
	cleared  int
}

func NewSweepSessionsHandler(sessions *SessionMirror) *SweepSessionsHandler {
	return &SweepSessionsHandler{sessions: sessions}
}

// Cleared returns the number of rows touched by the last Execute.
func (h *SweepSessionsHandler) Cleared() int {
	return h.cleared
}

func (h *SweepSessionsHandler) Execute(ctx context.Context, event SweepSessionsMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during session sweep",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SweepSessionsHandler) execute(ctx context.Context, _ SweepSessionsMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*30)
	defer cancel()

	cleared, err := h.sessions.Sweep(ctx)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryOperation, "session sweep failed")
	}

	h.cleared = cleared
	return nil
}
