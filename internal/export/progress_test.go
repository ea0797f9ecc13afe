package export

import "testing"

func TestProgress_Monotonic(t *testing.T) {
	var got []float64
	p := newProgress(func(v float64) { got = append(got, v) })

	capture := p.phase(0, 0.5)
	capture(0.5)
	capture(0.25) // regress: dropped
	capture(1)
	p.phase(0.5, 1)(0) // same value: dropped
	p.report(2)        // clamped
	p.done()           // already at 1: dropped

	want := []float64{0.25, 0.5, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("report %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestProgress_NilCallback(t *testing.T) {
	p := newProgress(nil)
	p.report(0.3)
	p.done()
	if p.last != 1 {
		t.Errorf("last: got %v, want 1", p.last)
	}
}
