package export

import "sync"

// ProgressFunc receives export progress in [0, 1]. Successive values never decrease.
type ProgressFunc func(float64)

// progress enforces monotonic reporting across the phases of one export.
// The GIF encoder reports from several workers, hence the lock.
type progress struct {
	mu   sync.Mutex
	fn   ProgressFunc
	last float64
}

func newProgress(fn ProgressFunc) *progress {
	return &progress{fn: fn, last: -1}
}

func (p *progress) report(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if v <= p.last {
		return
	}
	p.last = v
	if p.fn != nil {
		p.fn(v)
	}
}

// phase returns a reporter that maps a phase-local fraction onto [from, to].
func (p *progress) phase(from, to float64) ProgressFunc {
	return func(frac float64) {
		p.report(from + (to-from)*frac)
	}
}

func (p *progress) done() {
	p.report(1)
}
