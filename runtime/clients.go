package runtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/coordhead/protocol"
)

// Notification pairs a ServerOutput with a correlation ID so a client can
// log or de-duplicate deliveries across a reconnect, grounded on the
// uuid.New().String() correlation IDs the teacher mints for long-running
// operations (e.g. core/dao.go's proposal IDs).
type Notification struct {
	ID     string
	Output protocol.ServerOutput
}

// Clients fans ClientEffect deliveries out to every subscriber, grounded on
// core/network.go's topic/subscription map shape, specialised to an
// in-process set of channels rather than a pubsub topic.
type Clients struct {
	mu   sync.RWMutex
	subs map[string]chan Notification
	log  logrus.FieldLogger
}

// NewClients constructs an empty notification hub.
func NewClients(log logrus.FieldLogger) *Clients {
	return &Clients{subs: make(map[string]chan Notification), log: log}
}

// Subscribe registers a new client and returns its notification channel and
// an unsubscribe function. The channel is buffered; a slow client that
// falls behind has the oldest-style buffering semantics of a typical
// fan-out hub, not backpressure on the publisher.
func (c *Clients) Subscribe() (<-chan Notification, func()) {
	id := uuid.New().String()
	ch := make(chan Notification, 64)

	c.mu.Lock()
	c.subs[id] = ch
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
		c.mu.Unlock()
	}
}

// Publish delivers out to every current subscriber, tagging the delivery
// with a fresh correlation ID.
func (c *Clients) Publish(out protocol.ServerOutput) {
	n := Notification{ID: uuid.New().String(), Output: out}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for id, ch := range c.subs {
		select {
		case ch <- n:
		default:
			c.log.WithField("subscriber", id).Warn("dropping client notification: subscriber buffer full")
		}
	}
}
