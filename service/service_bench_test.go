package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/kvcache/lru"
	"github.com/luxfi/kvcache/pool"
	"github.com/luxfi/kvcache/store"
)

const (
	benchKeys     = 2000
	benchCapacity = 1000
	benchHandles  = 20
	benchHotKeys  = 10
)

// newBenchService preloads benchKeys rows into the store, none of them
// cached. Acquires wait so that parallel workers beyond the pool size
// queue instead of failing.
func newBenchService(b *testing.B) *Service {
	b.Helper()
	mem := newMemStore()
	for i := 0; i < benchKeys; i++ {
		mem.rows[benchKey(i)] = "value"
	}
	p, err := pool.New[store.Handle](
		context.Background(),
		benchHandles,
		func(context.Context) (store.Handle, error) { return &memHandle{store: mem}, nil },
		func(h store.Handle) error { return h.Close() },
		pool.WithAcquireTimeout(time.Second),
	)
	require.NoError(b, err)
	b.Cleanup(func() { _ = p.Close() })

	svc, err := New(lru.NewCache[string, string](benchCapacity), p)
	require.NoError(b, err)
	return svc
}

func benchKey(i int) string {
	return fmt.Sprintf("key-%d", i)
}

func runParallel(b *testing.B, op func(ctx context.Context, svc *Service) error) {
	svc := newBenchService(b)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := op(ctx, svc); err != nil && !errors.Is(err, ErrNotFound) {
				b.Error(err)
				return
			}
		}
	})
	b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "ops/s")
}

// BenchmarkGetOnly reads uniformly over a key set twice the cache size, so
// about half the reads go to the store.
func BenchmarkGetOnly(b *testing.B) {
	runParallel(b, func(ctx context.Context, svc *Service) error {
		_, err := svc.Read(ctx, benchKey(rand.IntN(benchKeys)))
		return err
	})
}

// BenchmarkPutOnly writes uniformly over the key set.
func BenchmarkPutOnly(b *testing.B) {
	runParallel(b, func(ctx context.Context, svc *Service) error {
		return svc.Create(ctx, benchKey(rand.IntN(benchKeys)), "value")
	})
}

// BenchmarkMixed issues 60% reads, 30% creates and 10% removes.
func BenchmarkMixed(b *testing.B) {
	runParallel(b, func(ctx context.Context, svc *Service) error {
		key := benchKey(rand.IntN(benchKeys))
		switch n := rand.IntN(10); {
		case n < 6:
			_, err := svc.Read(ctx, key)
			return err
		case n < 9:
			return svc.Create(ctx, key, "value")
		default:
			return svc.Remove(ctx, key)
		}
	})
}

// BenchmarkGetPopular reads a small hot set that stays cached after the
// first access.
func BenchmarkGetPopular(b *testing.B) {
	runParallel(b, func(ctx context.Context, svc *Service) error {
		_, err := svc.Read(ctx, benchKey(rand.IntN(benchHotKeys)))
		return err
	})
}
