package server

import (
	"sync"

	"github.com/zeusync/zoowalk/internal/core/components"
)

var _ components.KeySource = (*KeyBuffer)(nil)

// KeyBuffer holds the latest key state sent by any client. The tick
// goroutine polls it; connection goroutines write it.
type KeyBuffer struct {
	mu    sync.Mutex
	state components.KeyState
	owner string
}

func NewKeyBuffer() *KeyBuffer { return &KeyBuffer{} }

func (b *KeyBuffer) Keys() components.KeyState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Set records state as sent by client.
func (b *KeyBuffer) Set(client string, state components.KeyState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = state
	b.owner = client
}

// Release clears the state if client was the last writer, so a dropped
// connection does not leave keys held down.
func (b *KeyBuffer) Release(client string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.owner == client {
		b.state = components.KeyState{}
		b.owner = ""
	}
}
