package playback

import "fmt"

// MediaElement is the single audio resource a controller drives. The
// element reports back through Controller.Dispatch, tagging each event
// with the generation passed to the SetSource call it belongs to.
type MediaElement interface {
	SetSource(generation uint64, url string)
	Play()
	Pause()
	SetCurrentTime(seconds float64)
	// Clear stops playback and drops the current source.
	Clear()
}

// Command names as sent to a remote media element.
const (
	OpSetSource = "set_source"
	OpPlay      = "play"
	OpPause     = "pause"
	OpSeek      = "seek"
	OpClear     = "clear"
)

// EventKind is the closed set of media lifecycle signals.
type EventKind int

const (
	EventMetadataLoaded EventKind = iota + 1
	EventProgress
	EventEnded
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventMetadataLoaded:
		return "metadata"
	case EventProgress:
		return "progress"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// ParseEventKind maps a wire name back to its kind.
func ParseEventKind(s string) (EventKind, error) {
	switch s {
	case "metadata":
		return EventMetadataLoaded, nil
	case "progress":
		return EventProgress, nil
	case "ended":
		return EventEnded, nil
	case "error":
		return EventError, nil
	default:
		return 0, fmt.Errorf("unknown media event %q", s)
	}
}

// Event is one signal from the media element. Value carries the duration
// for metadata and the elapsed time for progress; Reason is set for errors.
type Event struct {
	Generation uint64
	Kind       EventKind
	Value      float64
	Reason     string
}

// MetadataLoaded builds a duration-known event.
func MetadataLoaded(gen uint64, duration float64) Event {
	return Event{Generation: gen, Kind: EventMetadataLoaded, Value: duration}
}

// Progress builds a time-progress event.
func Progress(gen uint64, elapsed float64) Event {
	return Event{Generation: gen, Kind: EventProgress, Value: elapsed}
}

// Ended builds an end-of-stream event.
func Ended(gen uint64) Event {
	return Event{Generation: gen, Kind: EventEnded}
}

// Failed builds a load/decode error event.
func Failed(gen uint64, reason string) Event {
	return Event{Generation: gen, Kind: EventError, Reason: reason}
}
