package notifications

import (
	"sync"
	"time"
)

const subscriberBuffer = 16

type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub раздает события подписчикам топика. Для ассистента топиком служит id домохозяйства.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	now         func() time.Time
}

// NewHub создает хаб для SSE-подписок.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
		now:         time.Now,
	}
}

// Subscribe подписывает на события топика и возвращает канал и функцию отписки.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	topicSubs, ok := h.subscribers[topic]
	if !ok {
		topicSubs = make(map[chan Event]struct{})
		h.subscribers[topic] = topicSubs
	}
	topicSubs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if subs, exists := h.subscribers[topic]; exists {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, topic)
				}
			}
			close(ch)
		})
	}
}

// Publish отправляет событие всем подписчикам топика.
// Медленный подписчик с заполненным буфером событие пропускает.
func (h *Hub) Publish(topic string, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = h.now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers возвращает число активных подписчиков топика.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}
