package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConversationLocks_SameKeyExcludes(t *testing.T) {
	l := newConversationLocks()
	var inside, overlap atomic.Bool

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(1)
			defer unlock()
			if !inside.CompareAndSwap(false, true) {
				overlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			inside.Store(false)
		}()
	}
	wg.Wait()

	require.False(t, overlap.Load())
	require.Zero(t, l.size())
}

func TestConversationLocks_DifferentKeysIndependent(t *testing.T) {
	l := newConversationLocks()
	unlock := l.Lock(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		l.Lock(2)()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another conversation blocked")
	}
	require.Equal(t, 1, l.size())
}
