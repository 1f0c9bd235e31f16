// Package notify is a small in-process publish/subscribe hub. Stores publish
// after every persisted write; views subscribe to re-render.
package notify

import "sync"

type Listener func(payload any)

type Bus interface {
	Publish(topic string, payload any)
	Subscribe(topic string, fn Listener) (unsubscribe func())
}

type subscription struct {
	id uint64
	fn Listener
}

// Hub delivers synchronously, in subscription order, on the publisher's
// goroutine. Listeners added or removed during a Publish take effect for the
// next one.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string][]subscription
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string][]subscription)}
}

func (h *Hub) Subscribe(topic string, fn Listener) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[topic] = append(h.subs[topic], subscription{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(topic, id) })
	}
}

func (h *Hub) remove(topic string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.subs[topic]
	for i, s := range list {
		if s.id == id {
			h.subs[topic] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(h.subs[topic]) == 0 {
		delete(h.subs, topic)
	}
}

func (h *Hub) Publish(topic string, payload any) {
	h.mu.Lock()
	list := append([]subscription(nil), h.subs[topic]...)
	h.mu.Unlock()

	for _, s := range list {
		s.fn(payload)
	}
}

// Subscribers reports how many listeners a topic has.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}
