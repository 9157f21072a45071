package resources

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturn-sh/saturn/pkg/types"
)

func TestAcquireManyAllOrNothingFastPath(t *testing.T) {
	m := New()
	m.Add(types.Resource{Name: "gpu-1", Type: "gpu"})

	lease, err := m.AcquireMany(context.Background(), []string{"gpu", "disk"}, false)
	require.ErrorIs(t, err, ErrUnavailable)
	require.Nil(t, lease)

	assert.Equal(t, 1, m.Available("gpu"))
}

func TestAcquireManyFastPathSucceedsHoldsEveryType(t *testing.T) {
	m := New()
	m.Add(types.Resource{Name: "gpu-1", Type: "gpu"})
	m.Add(types.Resource{Name: "disk-1", Type: "disk"})

	lease, err := m.AcquireMany(context.Background(), []string{"gpu", "disk"}, false)
	require.NoError(t, err)
	require.NotNil(t, lease)
	assert.Equal(t, 0, m.Available("gpu"))
	assert.Equal(t, 0, m.Available("disk"))

	lease.Release()
	assert.Equal(t, 1, m.Available("gpu"))
	assert.Equal(t, 1, m.Available("disk"))
}

func TestAcquireManyWaitBlocksUntilAvailable(t *testing.T) {
	m := New()

	done := make(chan error, 1)
	go func() {
		_, err := m.AcquireMany(context.Background(), []string{"gpu"}, true)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("AcquireMany returned before any resource was added")
	case <-time.After(50 * time.Millisecond):
	}

	m.Add(types.Resource{Name: "gpu-1", Type: "gpu"})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("AcquireMany never unblocked after Add")
	}
}

func TestAcquireManyFIFOWaiters(t *testing.T) {
	m := New()
	m.Add(types.Resource{Name: "gpu-1", Type: "gpu"})

	// Hold the single instance so subsequent waiters queue up.
	first, err := m.AcquireMany(context.Background(), []string{"gpu"}, false)
	require.NoError(t, err)

	const n = 5
	order := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Stagger ticket registration so arrival order is deterministic.
			time.Sleep(time.Duration(i) * 5 * time.Millisecond)
			lease, err := m.AcquireMany(context.Background(), []string{"gpu"}, true)
			require.NoError(t, err)
			order <- i
			lease.Release()
		}(i)
	}

	// Stagger registration before releasing the held instance.
	time.Sleep(time.Duration(n) * 5 * time.Millisecond)
	first.Release()

	wg.Wait()
	close(order)

	var got []int
	for v := range order {
		got = append(got, v)
	}
	require.Len(t, got, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, i, got[i], "waiters should be served in arrival order")
	}
}

func TestAcquireManyWaitCancelledByContext(t *testing.T) {
	m := New()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := m.AcquireMany(ctx, []string{"gpu"}, true)
	require.Error(t, err)
	assert.Equal(t, 0, len(m.queues["gpu"]))
}

func TestReleaseWithDefaultDelayWithholdsInstance(t *testing.T) {
	m := New()
	m.Add(types.Resource{Name: "gpu-1", Type: "gpu", DefaultDelay: 30 * time.Millisecond})

	lease, err := m.AcquireMany(context.Background(), []string{"gpu"}, false)
	require.NoError(t, err)
	lease.Release()

	assert.Equal(t, 0, m.Available("gpu"))
	require.Eventually(t, func() bool {
		return m.Available("gpu") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRemoveHeldResourceDoesNotRevokeLeaseButDropsOnRelease(t *testing.T) {
	m := New()
	m.Add(types.Resource{Name: "gpu-1", Type: "gpu"})

	lease, err := m.AcquireMany(context.Background(), []string{"gpu"}, false)
	require.NoError(t, err)

	m.Remove("gpu", "gpu-1")
	lease.Release()

	assert.Equal(t, 0, m.Available("gpu"))
}

func TestResourceExclusivity(t *testing.T) {
	m := New()
	m.Add(types.Resource{Name: "gpu-1", Type: "gpu"})

	const n = 20
	var held int
	var mu sync.Mutex
	maxHeld := 0
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := m.AcquireMany(context.Background(), []string{"gpu"}, true)
			require.NoError(t, err)
			mu.Lock()
			held++
			if int(held) > maxHeld {
				maxHeld = int(held)
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			held--
			mu.Unlock()
			lease.Release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxHeld, "at most one concurrent holder of a single instance")
}
