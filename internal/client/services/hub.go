package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/tipsync/internal/client/models"
	"github.com/dmitrijs2005/tipsync/internal/logging"
)

type snapshotFunc func(ctx context.Context) ([]*models.Tip, error)

type subscriber struct {
	load snapshotFunc
	wake chan struct{}
}

// hub fans local-change notifications out to live snapshot subscribers.
// Each subscriber reloads its own query on wake-up; bursts of notifications
// collapse into a single reload.
type hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	logger logging.Logger
}

func newHub(l logging.Logger) *hub {
	return &hub{subs: make(map[*subscriber]struct{}), logger: l}
}

// Notify signals every subscriber that local data changed.
func (h *hub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

func (h *hub) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Observe emits the current snapshot and then a fresh one after every
// Notify. A consumer that falls behind only sees the newest snapshot. The
// channel is closed when ctx is done.
func (h *hub) Observe(ctx context.Context, load snapshotFunc) (<-chan []*models.Tip, error) {
	s := &subscriber{load: load, wake: make(chan struct{}, 1)}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	initial, err := load(ctx)
	if err != nil {
		h.remove(s)
		return nil, err
	}

	out := make(chan []*models.Tip, 1)
	out <- initial

	go func() {
		defer close(out)
		defer h.remove(s)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				snap, err := s.load(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					h.logger.Warn(ctx, "snapshot reload failed", "error", err)
					continue
				}
				publish(out, snap)
			}
		}
	}()

	return out, nil
}

func (h *hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, s)
}

// publish replaces any unread snapshot with snap. out must have capacity 1
// and a single sender.
func publish(out chan []*models.Tip, snap []*models.Tip) {
	select {
	case out <- snap:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- snap
}
