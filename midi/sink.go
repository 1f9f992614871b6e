package midi

import (
	"errors"
	"fmt"
	"io"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Sink receives triggers as they fire
type Sink interface {
	Send(t Trigger) error
	Close() error
}

// LineSink writes the text line protocol `noteon <ch> <id> <velocity>;`
// understood by Pure Data style receivers.
type LineSink struct {
	w       io.Writer
	channel uint8 // 1-16
	mu      sync.Mutex
}

// NewLineSink creates a text sink on w. channel is 1-based.
func NewLineSink(w io.Writer, channel uint8) *LineSink {
	return &LineSink{w: w, channel: channel}
}

func (s *LineSink) Send(t Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "noteon %d %d %d;\n", s.channel, t.ID, t.Velocity)
	return err
}

func (s *LineSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// PortSink plays triggers on a MIDI output port as a note on immediately
// followed by its note off.
type PortSink struct {
	name     string
	send     func(gomidi.Message) error
	closer   func() error
	channel  uint8 // 0-based on the wire
	baseNote uint8
	mu       sync.Mutex
}

// OpenPortSink opens out for sending. channel is 1-based.
func OpenPortSink(out drivers.Out, channel, baseNote uint8) (*PortSink, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", out.String(), err)
	}
	s := NewPortSink(out.String(), send, channel, baseNote)
	s.closer = out.Close
	return s, nil
}

// NewPortSink wraps an already opened send function
func NewPortSink(name string, send func(gomidi.Message) error, channel, baseNote uint8) *PortSink {
	if channel < 1 {
		channel = 1
	}
	return &PortSink{
		name:     name,
		send:     send,
		channel:  channel - 1,
		baseNote: baseNote,
	}
}

// Name returns the port name
func (s *PortSink) Name() string {
	return s.name
}

func (s *PortSink) Send(t Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.send == nil {
		return nil
	}
	note := NoteFor(s.baseNote, t.ID)
	if err := s.send(gomidi.NoteOn(s.channel, note, t.Velocity)); err != nil {
		return err
	}
	return s.send(gomidi.NoteOff(s.channel, note))
}

func (s *PortSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = nil
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

// SwitchSink forwards to a target that can be replaced at runtime (hot-plug).
// With no target, triggers are dropped.
type SwitchSink struct {
	mu     sync.RWMutex
	target Sink
}

// Set replaces the target and returns the previous one
func (s *SwitchSink) Set(target Sink) Sink {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.target
	s.target = target
	return prev
}

// Target returns the current target (may be nil)
func (s *SwitchSink) Target() Sink {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target
}

func (s *SwitchSink) Send(t Trigger) error {
	if target := s.Target(); target != nil {
		return target.Send(t)
	}
	return nil
}

func (s *SwitchSink) Close() error {
	if prev := s.Set(nil); prev != nil {
		return prev.Close()
	}
	return nil
}

// MultiSink fans every trigger out to all sinks
type MultiSink []Sink

func (m MultiSink) Send(t Trigger) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordSink keeps every trigger in memory (dry runs, tests)
type RecordSink struct {
	mu       sync.Mutex
	Triggers []Trigger
}

func (r *RecordSink) Send(t Trigger) error {
	r.mu.Lock()
	r.Triggers = append(r.Triggers, t)
	r.mu.Unlock()
	return nil
}

func (r *RecordSink) Close() error { return nil }

// Snapshot returns a copy of the recorded triggers
func (r *RecordSink) Snapshot() []Trigger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Trigger(nil), r.Triggers...)
}
