package client

import (
	"sync"

	"github.com/sudotouchwoman/wappsto-bridge/pkg/common"
)

// ConsumerManager keeps the set of consumers subscribed
// to the broadcast.
type ConsumerManager struct {
	mu        sync.RWMutex
	listeners map[string]common.Consumer
}

func NewManager() *ConsumerManager {
	return &ConsumerManager{
		listeners: map[string]common.Consumer{},
	}
}

func (sm *ConsumerManager) Subscribe(c common.Consumer) {
	if c == nil {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.listeners[c.ID()] = c
}

func (sm *ConsumerManager) Unsubscribe(c common.Consumer) {
	// code duplication in nil checks sucks
	if c == nil {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.listeners, c.ID())
}

func (sm *ConsumerManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.listeners)
}

// Recievers is a snapshot of the consumers' channels,
// suitable as a ConsumerProvider.
func (sm *ConsumerManager) Recievers() []common.RecieverChan {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	consumers := make([]common.RecieverChan, 0, len(sm.listeners))
	for _, l := range sm.listeners {
		consumers = append(consumers, l.Reciever())
	}
	return consumers
}
