package sequencer

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"cam-sequence/midi"
	"cam-sequence/vision"
)

type stubSource struct {
	frame *vision.Frame
	err   error
	calls int
}

func (s *stubSource) Frame() (*vision.Frame, error) {
	s.calls++
	return s.frame, s.err
}

func TestManagerTickDeliversToSink(t *testing.T) {
	reg := newTestRegistry(4, 250)
	src := &stubSource{frame: halfRedFrame(t, 40, 10, 20)}
	sink := &midi.RecordSink{}
	m := NewManager(reg, src, sink, 60)

	m.Apply(StartGesture{Point: image.Pt(0, 0)})
	view := m.Apply(CommitGesture{Point: image.Pt(20, 5)}) // 2x scale -> 40x10
	if view == nil || view.Bounds != image.Rect(0, 0, 40, 10) {
		t.Fatalf("committed view = %+v", view)
	}

	t0 := time.Unix(1000, 0)
	m.TickAt(t0) // starts the clock
	m.TickAt(t0.Add(100 * time.Millisecond))
	m.TickAt(t0.Add(250 * time.Millisecond))

	got := sink.Snapshot()
	if len(got) != 1 || got[0].ID != 0 || got[0].Velocity != 127 {
		t.Fatalf("sink got %v", got)
	}

	snap := m.Snapshot(image.Point{})
	if snap.Totals.Ticks != 3 || snap.Totals.Triggers != 1 {
		t.Errorf("totals = %+v", snap.Totals)
	}
	if snap.Frame == nil || len(snap.Zones) != 1 || snap.Zones[0].Position != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestManagerCarriesSubMillisecond(t *testing.T) {
	reg := newTestRegistry(4, 250)
	z := reg.Add(image.Rect(0, 0, 40, 10))
	m := NewManager(reg, &stubSource{frame: halfRedFrame(t, 40, 10, 20)}, nil, 60)

	t0 := time.Unix(0, 0).Add(time.Hour)
	m.TickAt(t0)
	m.TickAt(t0.Add(249*time.Millisecond + 500*time.Microsecond))
	if z.Clock.Position() != 0 {
		t.Fatalf("stepped early at 249.5ms")
	}
	m.TickAt(t0.Add(250 * time.Millisecond))
	if z.Clock.Position() != 1 || z.Clock.Accumulated() != 0 {
		t.Errorf("position=%d accumulated=%d, want 1/0", z.Clock.Position(), z.Clock.Accumulated())
	}
}

func TestManagerSourceErrorSkipsDetection(t *testing.T) {
	reg := newTestRegistry(4, 250)
	z := reg.Add(image.Rect(0, 0, 40, 10))
	src := &stubSource{err: errors.New("device gone")}
	sink := &midi.RecordSink{}
	m := NewManager(reg, src, sink, 60)

	t0 := time.Unix(5000, 0)
	m.TickAt(t0)
	stats := m.TickAt(t0.Add(300 * time.Millisecond))

	if !stats.NoFrame || len(sink.Snapshot()) != 0 {
		t.Errorf("stats=%+v sink=%v", stats, sink.Snapshot())
	}
	if z.Clock.Position() != 1 {
		t.Errorf("clock position %d, want 1", z.Clock.Position())
	}
}

type errSink struct{}

func (errSink) Send(midi.Trigger) error { return errors.New("port closed") }
func (errSink) Close() error            { return nil }

func TestManagerCountsSinkErrors(t *testing.T) {
	reg := newTestRegistry(4, 250)
	reg.Add(image.Rect(0, 0, 40, 10))
	m := NewManager(reg, &stubSource{frame: halfRedFrame(t, 40, 10, 20)}, errSink{}, 60)

	t0 := time.Unix(1, 0)
	m.TickAt(t0)
	m.TickAt(t0.Add(250 * time.Millisecond))

	if got := m.Snapshot(image.Point{}).Totals.SinkErrors; got != 1 {
		t.Errorf("SinkErrors = %d, want 1", got)
	}
}

func TestManagerSnapshotPending(t *testing.T) {
	m := NewManager(newTestRegistry(16, 250), nil, nil, 60)
	m.Apply(StartGesture{Point: image.Pt(1, 1)})
	if !m.Creating() {
		t.Fatal("expected creating state")
	}
	snap := m.Snapshot(image.Pt(3, 4))
	if !snap.Creating || snap.Pending != image.Rect(2, 2, 6, 8) {
		t.Errorf("pending = %v creating = %v", snap.Pending, snap.Creating)
	}
}

func TestManagerRunStops(t *testing.T) {
	m := NewManager(newTestRegistry(16, 250), nil, nil, 120)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case <-m.UpdateChan:
	case <-time.After(2 * time.Second):
		t.Fatal("no tick within 2s")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
