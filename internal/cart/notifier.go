package cart

import "sync"

// Notifier fans out unit-count changes to registered UI surfaces. Callbacks
// run synchronously, in registration order, after every committed mutation.
type Notifier struct {
	mu   sync.Mutex
	next int
	subs []subscription
}

type subscription struct {
	id int
	fn func(count int)
}

// NewNotifier builds an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers a callback and returns its unsubscribe function.
// Unsubscribing twice is a no-op.
func (n *Notifier) Subscribe(fn func(count int)) func() {
	if fn == nil {
		return func() {}
	}

	n.mu.Lock()
	id := n.next
	n.next++
	n.subs = append(n.subs, subscription{id: id, fn: fn})
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, sub := range n.subs {
			if sub.id == id {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify invokes every subscriber with the new count. The subscriber list is
// snapshotted first so callbacks may subscribe/unsubscribe reentrantly.
func (n *Notifier) Notify(count int) {
	n.mu.Lock()
	snapshot := make([]subscription, len(n.subs))
	copy(snapshot, n.subs)
	n.mu.Unlock()

	for _, sub := range snapshot {
		sub.fn(count)
	}
}

// Len reports the number of live subscriptions.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
