package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockerDefaults(t *testing.T) {
	require := require.New(t)

	require.Equal(DefaultStripes, New(0).Stripes())
	require.Equal(4, New(4).Stripes())
}

func TestLockerIndexIsStable(t *testing.T) {
	require := require.New(t)

	l := New(16)
	for _, key := range []string{"", "a", "b", "some-longer-key"} {
		idx := l.Index(key)
		require.GreaterOrEqual(idx, 0)
		require.Less(idx, 16)
		require.Equal(idx, l.Index(key))
	}
}

func TestLockerSerializesSameKey(t *testing.T) {
	require := require.New(t)

	l := New(8)
	unlock := l.Lock("k")

	acquired := make(chan struct{})
	go func() {
		u := l.Lock("k")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock on the same key acquired while first was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		require.Fail("second lock not acquired after unlock")
	}
}

func TestLockerCounter(t *testing.T) {
	require := require.New(t)

	l := New(4)
	counts := map[string]*int{"x": new(int), "y": new(int), "z": new(int)}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for key, n := range counts {
			wg.Add(1)
			go func(key string, n *int) {
				defer wg.Done()
				unlock := l.Lock(key)
				defer unlock()
				*n++
			}(key, n)
		}
	}
	wg.Wait()

	for key, n := range counts {
		require.Equal(50, *n, key)
	}
}
