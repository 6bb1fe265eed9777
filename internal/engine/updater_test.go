package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronos_client/internal/domain"
	"chronos_client/internal/packet"
)

func newTestUpdater(t *testing.T, cfg UpdaterConfig, deps Deps) *Updater {
	t.Helper()
	gen := packet.NewGenerator(rand.New(rand.NewSource(5)), nil, packet.DefaultGeneratorConfig())
	u, err := NewUpdater(cfg, deps, gen)
	require.NoError(t, err)
	return u
}

func TestUpdater_ShardOfActiveRange(t *testing.T) {
	cat := testCatalog(t)
	require.NoError(t, cat.SetActiveRange(10, 20))
	tr := &fakeTransport{}

	u := newTestUpdater(t, UpdaterConfig{Worker: 1, Workers: 2, Interval: time.Millisecond, MaxRounds: 2},
		Deps{Catalog: cat, Transport: tr})

	want := make([]int32, 0, 10)
	for i := 20; i < 30; i++ {
		want = append(want, int32(i))
	}
	require.Len(t, u.Indices(), 10)
	assert.Equal(t, 20, u.Indices()[0])

	require.NoError(t, u.Run(context.Background()))

	sent := tr.packets()
	require.Len(t, sent, 2)
	for _, sp := range sent {
		assert.Equal(t, packet.KindUpdateStock, sp.kind)
		assert.Equal(t, want, sp.updates)
	}
	assert.Equal(t, 2, u.Sent())
}

func TestUpdater_SplitsLargeShards(t *testing.T) {
	cat := testCatalog(t)
	tr := &fakeTransport{}
	u := newTestUpdater(t, UpdaterConfig{Worker: 0, Workers: 1, Interval: time.Millisecond, MaxRounds: 1},
		Deps{Catalog: cat, Transport: tr})

	require.NoError(t, u.Run(context.Background()))

	sent := tr.packets()
	require.Len(t, sent, 3)
	next := int32(0)
	for _, sp := range sent {
		require.Equal(t, packet.MaxItems, sp.items)
		for _, idx := range sp.updates {
			require.Equal(t, next, idx)
			next++
		}
	}
}

func TestUpdater_StopsOnCancel(t *testing.T) {
	cat := testCatalog(t)
	tr := &fakeTransport{}
	u := newTestUpdater(t, UpdaterConfig{Worker: 0, Workers: 3, Interval: 5 * time.Millisecond},
		Deps{Catalog: cat, Transport: tr})

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	require.NoError(t, u.Run(ctx))

	assert.GreaterOrEqual(t, u.Sent(), 1)
	assert.Equal(t, 1, tr.disconnects)
}

func TestNewUpdater_Errors(t *testing.T) {
	cat := testCatalog(t)
	require.NoError(t, cat.SetActiveRange(0, 4))
	gen := packet.NewGenerator(rand.New(rand.NewSource(1)), nil, packet.DefaultGeneratorConfig())
	deps := Deps{Catalog: cat, Transport: &fakeTransport{}}

	tests := []struct {
		name string
		cfg  UpdaterConfig
	}{
		{"more workers than symbols", UpdaterConfig{Worker: 0, Workers: 5, Interval: time.Second}},
		{"worker out of range", UpdaterConfig{Worker: 2, Workers: 2, Interval: time.Second}},
		{"no interval", UpdaterConfig{Worker: 0, Workers: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUpdater(tt.cfg, deps, gen)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}
