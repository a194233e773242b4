package qrtr

import (
	"context"
	"sync"

	"github.com/qrtrlink/qrtr-go/internal/directory"
)

// waiterRegistry backs WaitForNode. Grounded directly on the teacher's
// pkg/mesh.sessionRegistry.waitFor: take the registry lock, re-check the
// directory and register a per-call channel while holding it (notify takes
// the same lock, so a publish that lands between the first check and
// registration is not missed), then race the channel against ctx.Done().
type waiterRegistry struct {
	mu      sync.Mutex
	waiters map[NodeID][]chan struct{}
}

func newWaiterRegistry() *waiterRegistry {
	return &waiterRegistry{waiters: make(map[NodeID][]chan struct{})}
}

func (r *waiterRegistry) wait(ctx context.Context, dir *directory.Table, id NodeID) (Node, error) {
	for {
		if v, ok := dir.Lookup(id); ok {
			return newNode(v), nil
		}

		ch := make(chan struct{}, 1)

		r.mu.Lock()
		if v, ok := dir.Lookup(id); ok {
			r.mu.Unlock()
			return newNode(v), nil
		}
		r.waiters[id] = append(r.waiters[id], ch)
		r.mu.Unlock()

		select {
		case <-ch:
			// loop and re-check: the node may have been published and
			// then removed again before we get scheduled.
		case <-ctx.Done():
			r.removeWaiter(id, ch)
			if ctx.Err() == context.DeadlineExceeded {
				return Node{}, ErrTimeout
			}
			return Node{}, ErrCancelled
		}
	}
}

func (r *waiterRegistry) removeWaiter(id NodeID, target chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	waiters := r.waiters[id]
	for i, ch := range waiters {
		if ch == target {
			r.waiters[id] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(r.waiters[id]) == 0 {
		delete(r.waiters, id)
	}
}

// notify wakes every waiter registered for id. Called only from the
// Observer's run loop, exactly when it publishes id.
func (r *waiterRegistry) notify(id NodeID) {
	r.mu.Lock()
	chans := r.waiters[id]
	delete(r.waiters, id)
	r.mu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
