package sequencer

import (
	"image"
	"testing"

	"cam-sequence/midi"
	"cam-sequence/vision"
)

// halfRedFrame is a w x h BGR frame whose left redCols columns are red and
// the rest green.
func halfRedFrame(t *testing.T, w, h, redCols int) *vision.Frame {
	t.Helper()
	src := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			if x < redCols {
				src[i+2] = 230 // R
			} else {
				src[i+1] = 230 // G
			}
		}
	}
	f, err := vision.NewFrame(w, h, vision.FormatBGR, src)
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}
	return f
}

func newTestRegistry(steps, msPerStep int) *Registry {
	opts := DefaultOptions()
	opts.Steps = steps
	opts.MsPerStep = msPerStep
	det, _ := vision.NewHSVDetector(vision.RedRange)
	return NewRegistry(opts, det)
}

func collect(r *Registry, elapsed int, f *vision.Frame) ([]midi.Trigger, TickStats) {
	var got []midi.Trigger
	stats := r.Tick(elapsed, f, func(t midi.Trigger) { got = append(got, t) })
	return got, stats
}

func TestTickEmitsOncePerStep(t *testing.T) {
	r := newTestRegistry(4, 250)
	frame := halfRedFrame(t, 40, 10, 20)
	r.Add(image.Rect(0, 0, 40, 10))

	wantVel := []uint8{127, 0, 0, 127} // positions 1, 2, 3, 0
	for i, want := range wantVel {
		// three frames between steps: only the crossing tick fires
		for j := 0; j < 3; j++ {
			got, _ := collect(r, 60, frame)
			if len(got) != 0 {
				t.Fatalf("step %d frame %d: unexpected triggers %v", i, j, got)
			}
		}
		got, stats := collect(r, 70, frame)
		if len(got) != 1 {
			t.Fatalf("step %d: got %d triggers, want 1", i, len(got))
		}
		if got[0].Velocity != want {
			t.Errorf("step %d: velocity %d, want %d", i, got[0].Velocity, want)
		}
		if stats.Edges != 1 || stats.Triggers != 1 {
			t.Errorf("step %d: stats %+v", i, stats)
		}
	}
}

func TestTickLargeGapFiresOnce(t *testing.T) {
	r := newTestRegistry(4, 250)
	frame := halfRedFrame(t, 40, 10, 40)
	z := r.Add(image.Rect(0, 0, 40, 10))

	got, _ := collect(r, 1000, frame)
	if len(got) != 1 {
		t.Fatalf("got %d triggers for a 4-step gap, want 1", len(got))
	}
	if z.Clock.Position() != 0 || z.Clock.Advances() != 4 {
		t.Errorf("position=%d advances=%d", z.Clock.Position(), z.Clock.Advances())
	}
}

func TestTickNoFrameStillAdvances(t *testing.T) {
	r := newTestRegistry(16, 250)
	z := r.Add(image.Rect(0, 0, 32, 10))

	got, stats := collect(r, 260, nil)
	if len(got) != 0 {
		t.Fatalf("triggers without a frame: %v", got)
	}
	if !stats.NoFrame || stats.Edges != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if z.Clock.Position() != 1 || z.Clock.Accumulated() != 10 {
		t.Errorf("clock not advanced: position=%d accumulated=%d", z.Clock.Position(), z.Clock.Accumulated())
	}

	// the edge was consumed: a later frame without a new step stays silent
	frame := halfRedFrame(t, 40, 10, 40)
	if got, _ := collect(r, 10, frame); len(got) != 0 {
		t.Errorf("stale edge fired late: %v", got)
	}

	// unavailable (zero-size) frame behaves like nil
	if _, stats := collect(r, 250, &vision.Frame{}); !stats.NoFrame {
		t.Error("zero-size frame should count as no frame")
	}
}

func TestTickOutOfBoundsSkipsOnlyThatZone(t *testing.T) {
	r := newTestRegistry(4, 250)
	frame := halfRedFrame(t, 40, 10, 40)

	outside := r.Add(image.Rect(100, 100, 140, 110))
	inside := r.Add(image.Rect(0, 0, 40, 10))

	got, stats := collect(r, 250, frame)
	if len(got) != 1 || got[0].ID != inside.ID() {
		t.Fatalf("triggers = %v, want one from zone %d", got, inside.ID())
	}
	if stats.OutOfBounds != 1 {
		t.Errorf("OutOfBounds = %d, want 1", stats.OutOfBounds)
	}
	if outside.Clock.Position() != 1 {
		t.Errorf("out-of-bounds zone clock position = %d, want 1", outside.Clock.Position())
	}
}

func TestTickClampsPartiallyOutside(t *testing.T) {
	r := newTestRegistry(2, 250)
	frame := halfRedFrame(t, 40, 10, 40)

	// second half [30,50) overhangs the 40px frame; the visible 10px are red
	z := r.Add(image.Rect(10, 0, 50, 20))
	got, stats := collect(r, 250, frame)
	if len(got) != 1 || got[0].Velocity != 127 {
		t.Fatalf("triggers = %v stats = %+v", got, stats)
	}
	if z.ActiveRect() != image.Rect(30, 0, 50, 20) {
		t.Errorf("ActiveRect = %v", z.ActiveRect())
	}
}

func TestTickDegenerateZoneEmitsZero(t *testing.T) {
	r := newTestRegistry(16, 250)
	frame := halfRedFrame(t, 40, 10, 40)
	r.Add(image.Rect(5, 5, 5, 5))

	got, _ := collect(r, 250, frame)
	if len(got) != 1 || got[0].Velocity != 0 {
		t.Errorf("degenerate zone triggers = %v, want one with velocity 0", got)
	}
}

func TestTickDegenerateZoneIsNeverSampled(t *testing.T) {
	r := newTestRegistry(16, 250)
	frame := halfRedFrame(t, 40, 10, 40)
	// zero width and far outside the frame: still a velocity 0 trigger,
	// not an out-of-bounds skip
	r.Add(image.Rect(500, 500, 500, 520))

	got, stats := collect(r, 250, frame)
	if len(got) != 1 || got[0].Velocity != 0 {
		t.Errorf("triggers = %v, want one with velocity 0", got)
	}
	if stats.OutOfBounds != 0 {
		t.Errorf("OutOfBounds = %d, want 0", stats.OutOfBounds)
	}
}

func TestTickOrderFollowsCreation(t *testing.T) {
	r := newTestRegistry(4, 250)
	frame := halfRedFrame(t, 40, 10, 20)
	for i := 0; i < 3; i++ {
		r.Add(image.Rect(0, 0, 40, 10))
	}

	got, _ := collect(r, 250, frame)
	if len(got) != 3 {
		t.Fatalf("got %d triggers, want 3", len(got))
	}
	for i, tr := range got {
		if tr.ID != uint64(i) {
			t.Errorf("trigger %d has id %d", i, tr.ID)
		}
	}
}

func TestApplyGestures(t *testing.T) {
	r := newTestRegistry(16, 250)

	if z := r.Apply(CommitGesture{Point: image.Pt(5, 5)}); z != nil {
		t.Fatal("commit while idle created a zone")
	}

	r.Apply(StartGesture{Point: image.Pt(0, 0)})
	r.Apply(CancelGesture{})
	r.Apply(StartGesture{Point: image.Pt(10, 10)})
	z := r.Apply(CommitGesture{Point: image.Pt(110, 60)})
	if z == nil {
		t.Fatal("commit did not create a zone")
	}
	if z.ID() != 0 {
		t.Errorf("cancelled gesture consumed an id: got %d", z.ID())
	}
	if z.Origin != image.Pt(20, 20) || z.Size != image.Pt(200, 100) {
		t.Errorf("zone origin=%v size=%v", z.Origin, z.Size)
	}

	r.Apply(StartGesture{Point: image.Pt(0, 0)})
	z2 := r.Apply(CommitGesture{Point: image.Pt(8, 8)})
	if z2.ID() != 1 {
		t.Errorf("second zone id = %d, want 1", z2.ID())
	}

	z.Clock.Advance(600)
	z2.Clock.Advance(300)
	r.Apply(ResetGesture{})
	for _, zz := range r.Zones() {
		if zz.Clock.Position() != 0 || zz.Clock.Accumulated() != 0 {
			t.Errorf("zone %d not reset", zz.ID())
		}
	}
}

func TestViews(t *testing.T) {
	r := newTestRegistry(4, 250)
	frame := halfRedFrame(t, 40, 10, 20)
	r.Add(image.Rect(0, 0, 40, 10))
	collect(r, 250, frame)

	views := r.Views()
	if len(views) != 1 {
		t.Fatalf("got %d views", len(views))
	}
	v := views[0]
	if v.Position != 1 || v.Active != image.Rect(10, 0, 20, 10) || !v.Fired || v.Velocity != 127 {
		t.Errorf("view = %+v", v)
	}
}
