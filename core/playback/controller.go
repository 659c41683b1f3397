package playback

import (
	"math"

	"Audiotheque/model"
)

// RestartThreshold is how far into a track Previous restarts it instead of
// moving back.
const RestartThreshold = 3.0

// Snapshot is a read-only view of the controller state.
type Snapshot struct {
	State         State        `json:"state"`
	Index         int          `json:"index"`
	QueueLength   int          `json:"queueLength"`
	Track         *model.Audio `json:"track,omitempty"`
	Elapsed       float64      `json:"elapsed"`
	Total         float64      `json:"total"`
	Generation    uint64       `json:"generation"`
	Unavailable   bool         `json:"unavailable"`
	ErrorReason   string       `json:"errorReason,omitempty"`
	CanGoPrevious bool         `json:"canGoPrevious"`
	CanGoNext     bool         `json:"canGoNext"`
}

// Playing reports whether the transport is running.
func (s Snapshot) Playing() bool {
	return s.State == StatePlaying
}

// Listener receives a snapshot after every state change.
type Listener func(Snapshot)

// Controller owns one playback queue and the media element that plays it.
// It is not safe for concurrent use; callers serialize access.
type Controller struct {
	media     MediaElement
	listeners []Listener

	queue      []model.Audio
	index      int // -1 when the queue is empty
	playing    bool
	elapsed    float64
	total      float64
	generation uint64

	unavailable bool
	errorReason string
}

// NewController creates a controller with an empty queue.
func NewController(media MediaElement) *Controller {
	return &Controller{
		media: media,
		index: -1,
	}
}

// OnChange registers a listener.
func (c *Controller) OnChange(l Listener) {
	c.listeners = append(c.listeners, l)
}

func (c *Controller) notify() {
	if len(c.listeners) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, l := range c.listeners {
		l(snap)
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		State:         c.state(),
		Index:         c.index,
		QueueLength:   len(c.queue),
		Elapsed:       c.elapsed,
		Total:         c.total,
		Generation:    c.generation,
		Unavailable:   c.unavailable,
		ErrorReason:   c.errorReason,
		CanGoPrevious: c.CanGoPrevious(),
		CanGoNext:     c.CanGoNext(),
	}
	if t := c.Current(); t != nil {
		track := *t
		s.Track = &track
	}
	return s
}

func (c *Controller) state() State {
	switch {
	case len(c.queue) == 0:
		return StateStopped
	case c.playing:
		return StatePlaying
	default:
		return StatePaused
	}
}

// Queue returns a copy of the loaded queue.
func (c *Controller) Queue() []model.Audio {
	out := make([]model.Audio, len(c.queue))
	copy(out, c.queue)
	return out
}

// Current returns the track at the current index, nil when empty.
func (c *Controller) Current() *model.Audio {
	if c.index < 0 || c.index >= len(c.queue) {
		return nil
	}
	return &c.queue[c.index]
}

// Generation identifies the current media source.
func (c *Controller) Generation() uint64 {
	return c.generation
}

// IsEmpty reports whether no queue is loaded.
func (c *Controller) IsEmpty() bool {
	return len(c.queue) == 0
}

// CanGoPrevious reports whether Previous would do anything.
func (c *Controller) CanGoPrevious() bool {
	if len(c.queue) == 0 {
		return false
	}
	return c.index > 0 || c.elapsed > RestartThreshold
}

// CanGoNext reports whether a next track exists.
func (c *Controller) CanGoNext() bool {
	return len(c.queue) > 0 && c.index < len(c.queue)-1
}

// LoadQueue replaces the queue and prepares its first track without
// starting it. An empty slice leaves the controller empty.
func (c *Controller) LoadQueue(tracks []model.Audio) {
	c.generation++
	c.queue = make([]model.Audio, len(tracks))
	copy(c.queue, tracks)
	c.playing = false
	c.elapsed = 0
	c.total = 0
	c.clearFailure()

	if len(c.queue) == 0 {
		c.index = -1
		c.media.Clear()
		c.notify()
		return
	}

	c.index = 0
	c.total = advisoryDuration(c.queue[0])
	c.media.SetSource(c.generation, c.queue[0].URL)
	c.notify()
}

// Clear empties the queue and releases the media element.
func (c *Controller) Clear() {
	c.LoadQueue(nil)
}

// Release clears the controller and drops its listeners. Used when the
// owning view goes away.
func (c *Controller) Release() {
	c.Clear()
	c.listeners = nil
}

// TogglePlayPause flips between playing and paused. An unavailable track
// cannot be resumed; SelectTrack reloads it.
func (c *Controller) TogglePlayPause() {
	if len(c.queue) == 0 {
		return
	}
	if c.unavailable && !c.playing {
		return
	}
	c.playing = !c.playing
	if c.playing {
		c.media.Play()
	} else {
		c.media.Pause()
	}
	c.notify()
}

// Next moves to the following track, keeping the transport state. At the
// last track it stops without wrapping.
func (c *Controller) Next() {
	if len(c.queue) == 0 {
		return
	}
	if c.index >= len(c.queue)-1 {
		c.playing = false
		c.media.Pause()
		c.notify()
		return
	}
	c.moveTo(c.index + 1)
	c.notify()
}

// Previous restarts the current track when it has played for more than
// RestartThreshold seconds, otherwise moves to the preceding one.
func (c *Controller) Previous() {
	if len(c.queue) == 0 {
		return
	}
	if c.elapsed > RestartThreshold {
		c.elapsed = 0
		c.media.SetCurrentTime(0)
		c.notify()
		return
	}
	if c.index == 0 {
		return
	}
	c.moveTo(c.index - 1)
	c.notify()
}

// moveTo loads the track at i and resumes it if the transport was running.
func (c *Controller) moveTo(i int) {
	wasPlaying := c.playing
	c.load(i)
	if wasPlaying {
		c.media.Play()
	}
}

func (c *Controller) load(i int) {
	c.generation++
	c.index = i
	c.elapsed = 0
	c.total = advisoryDuration(c.queue[i])
	c.clearFailure()
	c.media.SetSource(c.generation, c.queue[i].URL)
}

// SelectTrack jumps to index i and starts playing it. Selecting the
// current index reloads it, which is how a failed track is retried.
func (c *Controller) SelectTrack(i int) {
	if i < 0 || i >= len(c.queue) {
		return
	}
	c.load(i)
	c.playing = true
	c.media.Play()
	c.notify()
}

// Seek moves to percent (0-100) of the track duration. Out of range or
// malformed input is clamped.
func (c *Controller) Seek(percent float64) {
	if len(c.queue) == 0 {
		return
	}
	if math.IsNaN(percent) {
		percent = 0
	}
	percent = clamp(percent, 0, 100)
	c.elapsed = clamp(percent/100*c.total, 0, c.total)
	c.media.SetCurrentTime(c.elapsed)
	c.notify()
}

// OnMetadataLoaded records the authoritative duration of the current source.
func (c *Controller) OnMetadataLoaded(total float64) {
	if len(c.queue) == 0 || math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		return
	}
	c.total = total
	c.elapsed = clamp(c.elapsed, 0, c.total)
	c.notify()
}

// OnTimeProgress records the elapsed time reported by the media element.
func (c *Controller) OnTimeProgress(elapsed float64) {
	if len(c.queue) == 0 || math.IsNaN(elapsed) {
		return
	}
	if c.total > 0 {
		elapsed = clamp(elapsed, 0, c.total)
	} else if elapsed < 0 {
		elapsed = 0
	}
	c.elapsed = elapsed
	c.notify()
}

// OnTrackEnded advances like Next.
func (c *Controller) OnTrackEnded() {
	c.Next()
}

// OnError marks the current track unavailable. The position is kept and
// playback never advances on its own.
func (c *Controller) OnError(reason string) {
	if len(c.queue) == 0 {
		return
	}
	if reason == "" {
		reason = "track unavailable"
	}
	c.unavailable = true
	c.errorReason = reason
	c.playing = false
	c.notify()
}

func (c *Controller) clearFailure() {
	c.unavailable = false
	c.errorReason = ""
}

// Dispatch applies a media event if it belongs to the current source and
// reports whether it was applied. Events from a superseded source are dropped.
func (c *Controller) Dispatch(ev Event) bool {
	if ev.Generation != c.generation || len(c.queue) == 0 {
		return false
	}
	switch ev.Kind {
	case EventMetadataLoaded:
		c.OnMetadataLoaded(ev.Value)
	case EventProgress:
		c.OnTimeProgress(ev.Value)
	case EventEnded:
		c.OnTrackEnded()
	case EventError:
		c.OnError(ev.Reason)
	default:
		return false
	}
	return true
}

func advisoryDuration(t model.Audio) float64 {
	if t.Duration <= 0 {
		return 0
	}
	return float64(t.Duration)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
