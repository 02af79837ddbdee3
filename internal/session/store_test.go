package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupMissing(t *testing.T) {
	s := NewMemoryStore()
	_, ok := s.Lookup("+1555")
	assert.False(t, ok)
}

func TestPutAndLookup(t *testing.T) {
	s := NewMemoryStore()
	entry := Entry{ConversationID: "conv1", Token: "ctok1", CreatedAt: time.Now()}
	s.Put("+1555", entry)

	got, ok := s.Lookup("+1555")
	require.True(t, ok)
	assert.Equal(t, "conv1", got.ConversationID)
	assert.Equal(t, "ctok1", got.Token)
}

func TestPutReplacesWholeEntry(t *testing.T) {
	s := NewMemoryStore()
	s.Put("+1555", Entry{ConversationID: "conv1", Token: "ctok1"})
	s.Put("+1555", Entry{ConversationID: "conv2", Token: "ctok2"})

	got, ok := s.Lookup("+1555")
	require.True(t, ok)
	assert.Equal(t, "conv2", got.ConversationID)
	assert.Equal(t, "ctok2", got.Token)
	assert.Equal(t, 1, s.Len())
}

func TestDelete(t *testing.T) {
	s := NewMemoryStore()
	s.Put("+1555", Entry{ConversationID: "conv1", Token: "ctok1"})
	s.Delete("+1555")

	_, ok := s.Lookup("+1555")
	assert.False(t, ok)

	// deleting an absent key is a no-op
	s.Delete("+1555")
}

func TestKeysAreIndependent(t *testing.T) {
	s := NewMemoryStore()
	s.Put("+1555", Entry{ConversationID: "conv1", Token: "ctok1"})
	s.Put("+1666", Entry{ConversationID: "conv2", Token: "ctok2"})

	a, _ := s.Lookup("+1555")
	b, _ := s.Lookup("+1666")
	assert.Equal(t, "conv1", a.ConversationID)
	assert.Equal(t, "conv2", b.ConversationID)
	assert.Equal(t, 2, s.Len())
}

func TestConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Put("+1555", Entry{ConversationID: "conv", Token: "tok"})
			s.Lookup("+1555")
			s.Delete("+1555")
		}()
	}
	wg.Wait()
}
