package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperengineering/hasad/internal/types"
)

func TestContainer_ApplySwapsSnapshot(t *testing.T) {
	c := NewContainer(types.NewState("2024-01-10"))
	before := c.State()

	after := c.Apply(TogglePrayer("2024-01-10", types.PrayerFajr))

	assert.Equal(t, 1, after.PrayerLogs.Len())
	assert.Equal(t, after, c.State())
	assert.Equal(t, 0, before.PrayerLogs.Len(), "earlier snapshot must not change")
}

func TestContainer_ApplyNotifiesSubscribers(t *testing.T) {
	c := NewContainer(types.NewState("2024-01-10"))

	var got []types.State
	c.Subscribe(func(s types.State) { got = append(got, s) })

	c.Apply(MarkAllPrayed("2024-01-10"))
	c.Apply(DeleteSleep("2024-01-10"))

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].PrayerLogs.Len())
}

func TestContainer_SubscriberCanReadState(t *testing.T) {
	c := NewContainer(types.NewState("2024-01-10"))
	var seen int
	c.Subscribe(func(types.State) { seen = c.State().PrayerLogs.Len() })

	c.Apply(MarkAllPrayed("2024-01-10"))
	assert.Equal(t, 1, seen)
}

func TestContainer_ReplaceDoesNotNotify(t *testing.T) {
	c := NewContainer(types.State{})
	calls := 0
	c.Subscribe(func(types.State) { calls++ })

	loaded := types.NewState("2024-01-10")
	c.Replace(loaded)

	assert.Equal(t, 0, calls)
	assert.Equal(t, loaded, c.State())
}

func TestContainer_ConcurrentApplyComposes(t *testing.T) {
	c := NewContainer(types.NewState("2024-01-10"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Apply(AdjustThikrCount("2024-01-10", "tasbih", 1))
		}()
	}
	wg.Wait()

	l, ok := c.State().AthkarLogs.Find("2024-01-10")
	require.True(t, ok)
	assert.Equal(t, 50, l.Counts["tasbih"])
}

func TestCompose(t *testing.T) {
	m := Compose(
		TogglePrayer("2024-01-10", types.PrayerFajr),
		nil,
		TogglePrayer("2024-01-10", types.PrayerIsha),
	)
	s := m(types.State{})
	l, ok := s.PrayerLogs.Find("2024-01-10")
	require.True(t, ok)
	assert.Equal(t, []types.PrayerName{types.PrayerFajr, types.PrayerIsha}, l.Completed)
}

func TestNewID_Unique(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}
