package playback

import (
	"fmt"
	"sync"
)

// Command is a call recorded by MockMedia.
type Command struct {
	Op         string
	Generation uint64
	URL        string
	Position   float64
}

func (c Command) String() string {
	switch c.Op {
	case OpSetSource:
		return fmt.Sprintf("set_source(%d,%s)", c.Generation, c.URL)
	case OpSeek:
		return fmt.Sprintf("seek(%g)", c.Position)
	default:
		return c.Op
	}
}

// MockMedia is an in-memory MediaElement for testing. It records every
// command and mirrors the element's source and position.
type MockMedia struct {
	mu         sync.Mutex
	commands   []Command
	generation uint64
	url        string
	position   float64
	playing    bool
}

// NewMock creates a new mock media element.
func NewMock() *MockMedia {
	return &MockMedia{}
}

func (m *MockMedia) record(c Command) {
	m.commands = append(m.commands, c)
}

func (m *MockMedia) SetSource(generation uint64, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation = generation
	m.url = url
	m.position = 0
	m.playing = false
	m.record(Command{Op: OpSetSource, Generation: generation, URL: url})
}

func (m *MockMedia) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = true
	m.record(Command{Op: OpPlay})
}

func (m *MockMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	m.record(Command{Op: OpPause})
}

func (m *MockMedia) SetCurrentTime(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = seconds
	m.record(Command{Op: OpSeek, Position: seconds})
}

func (m *MockMedia) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.url = ""
	m.position = 0
	m.playing = false
	m.record(Command{Op: OpClear})
}

// Commands returns a copy of the recorded commands.
func (m *MockMedia) Commands() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Command, len(m.commands))
	copy(out, m.commands)
	return out
}

// Ops returns the recorded command names.
func (m *MockMedia) Ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.commands))
	for i, c := range m.commands {
		out[i] = c.Op
	}
	return out
}

// Reset forgets recorded commands.
func (m *MockMedia) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = nil
}

// Generation returns the generation of the current source.
func (m *MockMedia) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// URL returns the current source, empty after Clear.
func (m *MockMedia) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url
}

// Position returns the last requested position.
func (m *MockMedia) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// Playing reports whether Play was the last transport command.
func (m *MockMedia) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}
