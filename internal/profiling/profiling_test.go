package profiling

import (
	"testing"
	"time"
)

func TestFrameTopN(t *testing.T) {
	f := NewFrame()
	f.Add("a", 4200*time.Microsecond)
	f.Add("b", 2*time.Millisecond)
	f.Add("c", 100*time.Microsecond)
	f.Add("b", time.Millisecond)

	if got, want := f.TopN(2), "a:4.2ms, b:3ms"; got != want {
		t.Fatalf("TopN(2) = %q, want %q", got, want)
	}
	if got := f.Count("b"); got != 2 {
		t.Fatalf("Count(b) = %d, want 2", got)
	}
	if got := f.TopN(10); got != "a:4.2ms, b:3ms, c:0.1ms" {
		t.Fatalf("TopN(10) = %q", got)
	}
}

func TestTrackAndReset(t *testing.T) {
	ResetFrame()
	stop := Track("x")
	time.Sleep(time.Millisecond)
	stop()
	if Snapshot()["x"] <= 0 {
		t.Fatalf("expected a recorded duration")
	}
	ResetFrame()
	if len(Snapshot()) != 0 {
		t.Fatalf("expected an empty frame after reset")
	}
}
