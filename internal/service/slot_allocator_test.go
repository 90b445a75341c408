package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// memoryCounter сериализует обновления мьютексом, как это делает сериализуемая транзакция
type memoryCounter struct {
	mu        sync.Mutex
	index     int
	conflicts int // сколько первых вызовов завершатся конфликтом
	err       error
	calls     int
}

func (m *memoryCounter) UpdateSlotCounter(_ context.Context, fn func(current int) (int, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return m.err
	}
	if m.conflicts > 0 {
		m.conflicts--
		return fmt.Errorf("update slot counter: %w", ErrCounterConflict)
	}

	next, err := fn(m.index)
	if err != nil {
		return err
	}
	m.index = next
	return nil
}

func newTestAllocator(t *testing.T, store CounterStore, maxSlots int) *SlotAllocator {
	t.Helper()
	allocator, err := NewSlotAllocator(store, SlotAllocatorConfig{
		MaxSlots:      maxSlots,
		SlotsPerGroup: 10,
		MaxRetries:    3,
		RetryBase:     time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)
	return allocator
}

func TestSlotAllocator_Render(t *testing.T) {
	allocator := newTestAllocator(t, &memoryCounter{}, 260)

	tests := []struct {
		index int
		want  model.SlotID
	}{
		{index: 0, want: "A-01"},
		{index: 9, want: "A-10"},
		{index: 10, want: "B-01"},
		{index: 49, want: "E-10"},
		{index: 259, want: "Z-10"},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, allocator.Render(tt.index))
		})
	}

	seen := make(map[model.SlotID]int)
	for i := 0; i < 260; i++ {
		id := allocator.Render(i)
		prev, dup := seen[id]
		require.False(t, dup, "index %d renders the same id as %d", i, prev)
		seen[id] = i
	}
}

func TestSlotAllocator_Sequence(t *testing.T) {
	store := &memoryCounter{}
	allocator := newTestAllocator(t, store, 50)

	var got []model.SlotID
	for i := 0; i < 52; i++ {
		slot, err := allocator.Allocate(context.Background())
		require.NoError(t, err)
		got = append(got, slot)
	}

	assert.Equal(t, model.SlotID("A-01"), got[0])
	assert.Equal(t, model.SlotID("A-02"), got[1])
	assert.Equal(t, model.SlotID("B-01"), got[10])
	assert.Equal(t, model.SlotID("E-10"), got[49])
	// После 50 выдач счётчик возвращается к началу
	assert.Equal(t, model.SlotID("A-01"), got[50])
	assert.Equal(t, model.SlotID("A-02"), got[51])
	assert.Equal(t, 2, store.index)
}

func TestSlotAllocator_ConcurrentAllocationsAreUnique(t *testing.T) {
	store := &memoryCounter{}
	allocator := newTestAllocator(t, store, 50)

	var (
		mu    sync.Mutex
		slots = make(map[model.SlotID]int)
	)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 50; i++ {
		g.Go(func() error {
			slot, err := allocator.Allocate(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			slots[slot]++
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, slots, 50)
	for i := 0; i < 50; i++ {
		assert.Equal(t, 1, slots[allocator.Render(i)], "slot %s", allocator.Render(i))
	}
	assert.Equal(t, 0, store.index)
}

func TestSlotAllocator_RetriesConflicts(t *testing.T) {
	store := &memoryCounter{conflicts: 2}
	allocator := newTestAllocator(t, store, 50)

	slot, err := allocator.Allocate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.SlotID("A-01"), slot)
	assert.Equal(t, 3, store.calls)
	assert.Equal(t, 1, store.index)
}

func TestSlotAllocator_Failures(t *testing.T) {
	tests := []struct {
		name      string
		store     *memoryCounter
		wantCalls int
	}{
		{name: "retries exhausted", store: &memoryCounter{conflicts: 100}, wantCalls: 4},
		{name: "store unavailable", store: &memoryCounter{err: errors.New("connection refused")}, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allocator := newTestAllocator(t, tt.store, 50)

			slot, err := allocator.Allocate(context.Background())
			require.Error(t, err)
			assert.Empty(t, slot)

			var allocErr *AllocationError
			require.ErrorAs(t, err, &allocErr)
			assert.Equal(t, tt.wantCalls, allocErr.Attempts)
			assert.Equal(t, tt.wantCalls, tt.store.calls)
			// Счётчик не изменился
			assert.Zero(t, tt.store.index)
		})
	}
}

func TestSlotAllocator_NormalizesStoredIndex(t *testing.T) {
	store := &memoryCounter{index: 57}
	allocator := newTestAllocator(t, store, 50)

	slot, err := allocator.Allocate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.SlotID("A-08"), slot)
	assert.Equal(t, 8, store.index)
}

func TestNewSlotAllocator_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  SlotAllocatorConfig
	}{
		{name: "zero max", cfg: SlotAllocatorConfig{MaxSlots: 0, SlotsPerGroup: 10}},
		{name: "zero group", cfg: SlotAllocatorConfig{MaxSlots: 10, SlotsPerGroup: 0}},
		{name: "more than 26 groups", cfg: SlotAllocatorConfig{MaxSlots: 261, SlotsPerGroup: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSlotAllocator(&memoryCounter{}, tt.cfg, zap.NewNop())
			assert.Error(t, err)
		})
	}
}
