package playback

import (
	"fmt"
	"math"
	"testing"

	"Audiotheque/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tracks(n int) []model.Audio {
	out := make([]model.Audio, n)
	for i := range out {
		out[i] = model.Audio{
			ID:       fmt.Sprintf("t%d", i),
			Title:    fmt.Sprintf("Track %d", i),
			URL:      fmt.Sprintf("http://media/t%d.mp3", i),
			Duration: 120,
		}
	}
	return out
}

func newLoaded(t *testing.T, n int) (*Controller, *MockMedia) {
	t.Helper()
	m := NewMock()
	c := NewController(m)
	c.LoadQueue(tracks(n))
	return c, m
}

func TestNewController_Empty(t *testing.T) {
	c := NewController(NewMock())

	snap := c.Snapshot()
	assert.Equal(t, StateStopped, snap.State)
	assert.Equal(t, -1, snap.Index)
	assert.Nil(t, snap.Track)
	assert.True(t, c.IsEmpty())
	assert.False(t, c.CanGoNext())
	assert.False(t, c.CanGoPrevious())
}

func TestEmptyQueue_TransportIsNoop(t *testing.T) {
	m := NewMock()
	c := NewController(m)
	calls := 0
	c.OnChange(func(Snapshot) { calls++ })

	c.TogglePlayPause()
	c.Next()
	c.Previous()
	c.Seek(50)
	c.SelectTrack(0)
	c.OnMetadataLoaded(10)
	c.OnTimeProgress(3)
	c.OnTrackEnded()
	c.OnError("boom")

	assert.Empty(t, m.Commands())
	assert.Zero(t, calls)
	assert.Equal(t, -1, c.Snapshot().Index)
}

func TestLoadQueue_PreparesFirstTrack(t *testing.T) {
	c, m := newLoaded(t, 3)

	snap := c.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, StatePaused, snap.State)
	assert.Equal(t, 0.0, snap.Elapsed)
	assert.Equal(t, 120.0, snap.Total)
	require.NotNil(t, snap.Track)
	assert.Equal(t, "t0", snap.Track.ID)

	assert.Equal(t, []string{"set_source"}, m.Ops())
	assert.Equal(t, "http://media/t0.mp3", m.URL())
	assert.Equal(t, c.Generation(), m.Generation())
	assert.False(t, m.Playing())
}

func TestLoadQueue_EmptyClearsMedia(t *testing.T) {
	c, m := newLoaded(t, 2)
	m.Reset()

	c.LoadQueue(nil)

	assert.True(t, c.IsEmpty())
	assert.Equal(t, []string{"clear"}, m.Ops())
	assert.Equal(t, "", m.URL())
}

func TestLoadQueue_CopiesInput(t *testing.T) {
	in := tracks(2)
	c := NewController(NewMock())
	c.LoadQueue(in)

	in[0].Title = "changed"
	assert.Equal(t, "Track 0", c.Current().Title)
}

func TestNext_NoWraparound(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			c, _ := newLoaded(t, n)
			c.TogglePlayPause()

			for i := 0; i < n-1; i++ {
				c.Next()
			}
			assert.Equal(t, n-1, c.Snapshot().Index)

			c.Next()
			snap := c.Snapshot()
			assert.Equal(t, n-1, snap.Index)
			assert.False(t, snap.Playing())
		})
	}
}

func TestNext_KeepsTransportState(t *testing.T) {
	c, m := newLoaded(t, 3)

	c.Next()
	assert.Equal(t, StatePaused, c.Snapshot().State)
	assert.False(t, m.Playing())

	c.TogglePlayPause()
	m.Reset()
	c.Next()

	snap := c.Snapshot()
	assert.Equal(t, 2, snap.Index)
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, 0.0, snap.Elapsed)
	assert.Equal(t, []string{"set_source", "play"}, m.Ops())
	assert.Equal(t, "http://media/t2.mp3", m.URL())
}

func TestPrevious_RestartsAfterThreshold(t *testing.T) {
	c, m := newLoaded(t, 3)
	c.Next()
	c.OnTimeProgress(5)
	m.Reset()

	c.Previous()

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, 0.0, snap.Elapsed)
	assert.Equal(t, []string{"seek"}, m.Ops())
	assert.Equal(t, 0.0, m.Position())
}

func TestPrevious_MovesBackWithinThreshold(t *testing.T) {
	c, _ := newLoaded(t, 3)
	c.Next()
	c.Next()
	c.OnTimeProgress(1)

	c.Previous()

	assert.Equal(t, 1, c.Snapshot().Index)
}

func TestPrevious_ExactlyThresholdMovesBack(t *testing.T) {
	c, _ := newLoaded(t, 2)
	c.Next()
	c.OnTimeProgress(RestartThreshold)

	c.Previous()

	assert.Equal(t, 0, c.Snapshot().Index)
}

func TestPrevious_FirstTrackLowElapsedIsNoop(t *testing.T) {
	c, m := newLoaded(t, 2)
	c.OnTimeProgress(2)
	m.Reset()
	calls := 0
	c.OnChange(func(Snapshot) { calls++ })

	c.Previous()

	assert.Equal(t, 0, c.Snapshot().Index)
	assert.Equal(t, 2.0, c.Snapshot().Elapsed)
	assert.Empty(t, m.Ops())
	assert.Zero(t, calls)
}

func TestSeek_Clamps(t *testing.T) {
	c, m := newLoaded(t, 1)
	c.OnMetadataLoaded(200)

	c.Seek(150)
	assert.Equal(t, 200.0, c.Snapshot().Elapsed)

	c.Seek(-10)
	assert.Equal(t, 0.0, c.Snapshot().Elapsed)

	c.Seek(25)
	assert.Equal(t, 50.0, c.Snapshot().Elapsed)
	assert.Equal(t, 50.0, m.Position())

	c.Seek(math.NaN())
	assert.Equal(t, 0.0, c.Snapshot().Elapsed)
}

func TestSeek_DoesNotChangeTransport(t *testing.T) {
	c, _ := newLoaded(t, 1)
	c.TogglePlayPause()
	c.Seek(40)
	assert.Equal(t, StatePlaying, c.Snapshot().State)
}

func TestTogglePlayPause(t *testing.T) {
	c, m := newLoaded(t, 1)
	m.Reset()

	c.TogglePlayPause()
	assert.Equal(t, StatePlaying, c.Snapshot().State)
	c.TogglePlayPause()
	assert.Equal(t, StatePaused, c.Snapshot().State)

	assert.Equal(t, []string{"play", "pause"}, m.Ops())
}

func TestLoadQueue_ResetsState(t *testing.T) {
	c, _ := newLoaded(t, 5)
	c.TogglePlayPause()
	c.Next()
	c.Next()
	c.Next()
	c.OnTimeProgress(42)
	require.Equal(t, 3, c.Snapshot().Index)
	require.True(t, c.Snapshot().Playing())

	c.LoadQueue(tracks(2))

	snap := c.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.False(t, snap.Playing())
	assert.Equal(t, 0.0, snap.Elapsed)
	assert.Equal(t, 2, snap.QueueLength)
}

func TestOnMetadataLoaded_ClampsElapsed(t *testing.T) {
	c, _ := newLoaded(t, 1)
	c.OnTimeProgress(90)

	c.OnMetadataLoaded(60)
	assert.Equal(t, 60.0, c.Snapshot().Total)
	assert.Equal(t, 60.0, c.Snapshot().Elapsed)

	c.OnMetadataLoaded(-1)
	c.OnMetadataLoaded(math.Inf(1))
	assert.Equal(t, 60.0, c.Snapshot().Total)
}

func TestOnTimeProgress_Bounds(t *testing.T) {
	c, _ := newLoaded(t, 1)
	c.OnMetadataLoaded(100)

	c.OnTimeProgress(-4)
	assert.Equal(t, 0.0, c.Snapshot().Elapsed)

	c.OnTimeProgress(140)
	assert.Equal(t, 100.0, c.Snapshot().Elapsed)
}

func TestOnTimeProgress_UnknownDuration(t *testing.T) {
	m := NewMock()
	c := NewController(m)
	c.LoadQueue([]model.Audio{{ID: "x", URL: "u"}})

	c.OnTimeProgress(12)
	assert.Equal(t, 12.0, c.Snapshot().Elapsed)
}

func TestCapabilityFlags(t *testing.T) {
	c, _ := newLoaded(t, 3)
	assert.False(t, c.CanGoPrevious())
	assert.True(t, c.CanGoNext())

	c.OnTimeProgress(4)
	assert.True(t, c.CanGoPrevious())

	c.Next()
	c.Next()
	assert.True(t, c.CanGoPrevious())
	assert.False(t, c.CanGoNext())
}

func TestDispatch_DropsStaleGeneration(t *testing.T) {
	c, _ := newLoaded(t, 3)
	old := c.Generation()
	c.Next()

	assert.False(t, c.Dispatch(Progress(old, 30)))
	assert.False(t, c.Dispatch(Ended(old)))
	assert.False(t, c.Dispatch(Failed(old, "decode")))
	assert.False(t, c.Dispatch(MetadataLoaded(old, 999)))

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, 0.0, snap.Elapsed)
	assert.Equal(t, 120.0, snap.Total)
	assert.False(t, snap.Unavailable)
}

func TestDispatch_CurrentGeneration(t *testing.T) {
	c, _ := newLoaded(t, 2)
	gen := c.Generation()

	require.True(t, c.Dispatch(MetadataLoaded(gen, 90)))
	require.True(t, c.Dispatch(Progress(gen, 10)))
	assert.Equal(t, 90.0, c.Snapshot().Total)
	assert.Equal(t, 10.0, c.Snapshot().Elapsed)

	require.True(t, c.Dispatch(Ended(gen)))
	assert.Equal(t, 1, c.Snapshot().Index)

	assert.False(t, c.Dispatch(Event{Generation: c.Generation(), Kind: EventKind(99)}))
}

func TestDispatch_AfterClearIsDropped(t *testing.T) {
	c, _ := newLoaded(t, 2)
	gen := c.Generation()
	c.Clear()

	assert.False(t, c.Dispatch(Progress(gen, 5)))
	assert.True(t, c.IsEmpty())
}

func TestOnError_KeepsPositionAndMarksUnavailable(t *testing.T) {
	c, m := newLoaded(t, 3)
	c.Next()
	c.TogglePlayPause()
	m.Reset()

	require.True(t, c.Dispatch(Failed(c.Generation(), "")))

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.True(t, snap.Unavailable)
	assert.Equal(t, "track unavailable", snap.ErrorReason)
	assert.False(t, snap.Playing())
	assert.Empty(t, m.Ops())
}

func TestTogglePlayPause_UnavailableTrackStaysPaused(t *testing.T) {
	c, m := newLoaded(t, 2)
	c.SelectTrack(0)
	c.OnError("decode failed")
	m.Reset()

	c.TogglePlayPause()

	snap := c.Snapshot()
	assert.False(t, snap.Playing())
	assert.True(t, snap.Unavailable)
	assert.Empty(t, m.Ops())
}

func TestSelectTrack_RetriesFailedTrack(t *testing.T) {
	c, m := newLoaded(t, 3)
	c.SelectTrack(2)
	before := c.Generation()
	c.OnError("network")
	m.Reset()

	c.SelectTrack(2)

	snap := c.Snapshot()
	assert.Equal(t, 2, snap.Index)
	assert.False(t, snap.Unavailable)
	assert.Empty(t, snap.ErrorReason)
	assert.True(t, snap.Playing())
	assert.Greater(t, snap.Generation, before)
	assert.Equal(t, []string{"set_source", "play"}, m.Ops())
}

func TestSelectTrack_OutOfRange(t *testing.T) {
	c, m := newLoaded(t, 2)
	m.Reset()

	c.SelectTrack(2)
	c.SelectTrack(-1)

	assert.Equal(t, 0, c.Snapshot().Index)
	assert.Empty(t, m.Ops())
}

func TestRelease_DropsListeners(t *testing.T) {
	c, m := newLoaded(t, 2)
	calls := 0
	c.OnChange(func(Snapshot) { calls++ })

	c.Release()
	assert.Equal(t, 1, calls)
	assert.Equal(t, "clear", m.Ops()[len(m.Ops())-1])

	c.LoadQueue(tracks(1))
	assert.Equal(t, 1, calls)
}

func TestListener_ReceivesSnapshots(t *testing.T) {
	c := NewController(NewMock())
	var got []Snapshot
	c.OnChange(func(s Snapshot) { got = append(got, s) })

	c.LoadQueue(tracks(2))
	c.TogglePlayPause()
	c.Next()

	require.Len(t, got, 3)
	assert.Equal(t, StatePaused, got[0].State)
	assert.Equal(t, StatePlaying, got[1].State)
	assert.Equal(t, 1, got[2].Index)
	assert.Equal(t, "t1", got[2].Track.ID)
}

func TestParseEventKind(t *testing.T) {
	for _, k := range []EventKind{EventMetadataLoaded, EventProgress, EventEnded, EventError} {
		got, err := ParseEventKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseEventKind("seeked")
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestStateText(t *testing.T) {
	for _, s := range []State{StateStopped, StatePlaying, StatePaused} {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var back State
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, s, back)
	}
	var s State
	assert.Error(t, s.UnmarshalText([]byte("rewinding")))
}
