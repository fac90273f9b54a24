package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlupugla/saveload/internal/config"
	"github.com/nlupugla/saveload/internal/saveload"
	"github.com/nlupugla/saveload/internal/variant"
)

func TestSynchronizerGetProperty(t *testing.T) {
	w := newWorld(t)

	tests := []struct {
		addr string
		want variant.Value
		ok   bool
	}{
		{".:position", variant.Vector2{X: 1, Y: 2}, true},
		{":health", variant.Int(100), true},
		{".:position:y", variant.Float(2), true},
		{"Sprite:modulate:a", variant.Float(1), true},
		{":stats:level", variant.Int(1), true},
		{":missing", nil, false},
		{"Nobody:health", nil, false},
		{"Sprite:modulate:q", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			v, ok := w.sync.GetProperty(np(tt.addr))
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.True(t, variant.Equal(tt.want, v), "got %#v", v)
			}
		})
	}
}

func TestSynchronizerSetProperty(t *testing.T) {
	w := newWorld(t)

	require.NoError(t, w.sync.SetProperty(np("Sprite:modulate:a"), variant.Float(0.5)))
	v, _ := w.sprite.Get("modulate")
	assert.Equal(t, variant.Color{R: 1, G: 1, B: 1, A: 0.5}, v)

	err := w.sync.SetProperty(np("Nobody:health"), variant.Int(1))
	assert.ErrorIs(t, err, saveload.ErrNotFound)

	err = w.sync.SetProperty(np(":missing"), variant.Int(1))
	assert.ErrorIs(t, err, saveload.ErrNotFound)

	err = w.sync.SetProperty(np(":position:x"), variant.String("left"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, saveload.ErrNotFound)
	assert.ErrorIs(t, err, variant.ErrMemberType)
}

func TestSynchronizerMissingRoot(t *testing.T) {
	w := newWorld(t)
	w.sync.RootPath = np("../../Nowhere")

	_, ok := w.sync.GetProperty(np(":health"))
	assert.False(t, ok)
	assert.ErrorIs(t, w.sync.SetProperty(np(":health"), variant.Int(1)), saveload.ErrNotFound)
}

func TestSynchronizerStateRoundTrip(t *testing.T) {
	w := newWorld(t)
	r := saveload.NewReport(discardLogger())

	state := w.sync.SyncherState(r)
	require.Zero(t, r.Len())
	require.Len(t, state, 3)
	assert.Equal(t, ".:position", state[0].Property.String())
	assert.Equal(t, "Sprite:modulate:a", state[2].Property.String())

	w.player.Set("position", variant.Vector2{X: 9, Y: 9})
	w.player.Set("health", variant.Int(1))
	w.sprite.Set("modulate", variant.Color{R: 1, G: 1, B: 1, A: 0})

	w.sync.SetSyncherState(state, r)
	require.Zero(t, r.Len())

	pos, _ := w.player.Get("position")
	hp, _ := w.player.Get("health")
	mod, _ := w.sprite.Get("modulate")
	assert.Equal(t, variant.Vector2{X: 1, Y: 2}, pos)
	assert.Equal(t, variant.Int(100), hp)
	assert.Equal(t, variant.Color{R: 1, G: 1, B: 1, A: 1}, mod)
}

func TestSynchronizerDisabledProperty(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.sync.Config.PropertySetSync(np(".:health"), false))

	state := w.sync.SyncherState(nil)
	require.Len(t, state, 2)
	_, ok := state.Get(np(".:health"))
	assert.False(t, ok)
}

func TestSynchronizerCaptureWarnings(t *testing.T) {
	w := newWorld(t)
	w.player.Set("target", variant.ObjectRef{ID: 7})
	cfg, err := config.New(":target", ":gone", ":health")
	require.NoError(t, err)
	w.sync.Config = cfg

	r := saveload.NewReport(discardLogger())
	state := w.sync.SyncherState(r)

	assert.Equal(t, 1, r.Count(saveload.ErrCodeType))
	assert.Equal(t, 1, r.Count(saveload.ErrCodeResolution))
	require.Len(t, state, 2)
	assert.Equal(t, variant.Nil{}, state[0].Value)
	assert.Equal(t, variant.Int(100), state[1].Value)
}

func TestSynchronizerNilConfig(t *testing.T) {
	s := NewSynchronizer("Sync", nil)
	assert.Empty(t, s.SyncherState(nil))
	s.Config = nil
	assert.Empty(t, s.SyncherState(nil))
}
