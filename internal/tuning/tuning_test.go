package tuning

import (
	"testing"
	"time"
)

func TestTTLPolicy(t *testing.T) {
	p := TTLPolicy{Base: 5 * time.Second}

	tests := []struct {
		name    string
		hitRate float64
		want    time.Duration
	}{
		{"low hit rate widens", 20, 10 * time.Second},
		{"just below threshold widens", 49.9, 10 * time.Second},
		{"mid range unchanged", 65, 5 * time.Second},
		{"boundary low unchanged", 50, 5 * time.Second},
		{"boundary high unchanged", 80, 5 * time.Second},
		{"high hit rate narrows", 95, 4 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.TTL(tt.hitRate); got != tt.want {
				t.Errorf("TTL(%.1f) = %v, want %v", tt.hitRate, got, tt.want)
			}
		})
	}
}

func TestRefreshPolicy_WidensOnSlowTicks(t *testing.T) {
	p := NewRefreshPolicy(3*time.Second, time.Second, 10*time.Second)

	for i := 0; i < 5; i++ {
		p.Observe(200 * time.Millisecond)
	}

	if p.Interval() <= 3*time.Second {
		t.Errorf("Interval() = %v, want widened beyond 3s", p.Interval())
	}
}

func TestRefreshPolicy_NarrowsOnFastTicks(t *testing.T) {
	p := NewRefreshPolicy(3*time.Second, time.Second, 10*time.Second)

	for i := 0; i < 5; i++ {
		p.Observe(10 * time.Millisecond)
	}

	if p.Interval() >= 3*time.Second {
		t.Errorf("Interval() = %v, want narrowed below 3s", p.Interval())
	}
}

func TestRefreshPolicy_ClampsToBounds(t *testing.T) {
	p := NewRefreshPolicy(3*time.Second, 2*time.Second, 4*time.Second)

	for i := 0; i < 50; i++ {
		p.Observe(500 * time.Millisecond)
	}
	if p.Interval() != 4*time.Second {
		t.Errorf("Interval() = %v, want clamped to max 4s", p.Interval())
	}

	for i := 0; i < 50; i++ {
		p.Observe(time.Millisecond)
	}
	if p.Interval() != 2*time.Second {
		t.Errorf("Interval() = %v, want clamped to min 2s", p.Interval())
	}
}

func TestRefreshPolicy_NoAdjustmentBeforeMinSamples(t *testing.T) {
	p := NewRefreshPolicy(3*time.Second, time.Second, 10*time.Second)

	for i := 0; i < 4; i++ {
		p.Observe(500 * time.Millisecond)
	}

	if p.Interval() != 3*time.Second {
		t.Errorf("Interval() = %v, want unchanged 3s with under %d samples", p.Interval(), minSamples)
	}
}

func TestNewRefreshPolicy_NormalizesArguments(t *testing.T) {
	p := NewRefreshPolicy(20*time.Second, 2*time.Second, 5*time.Second)
	if p.Interval() != 5*time.Second {
		t.Errorf("Interval() = %v, want base clamped to max", p.Interval())
	}

	p = NewRefreshPolicy(0, 0, 0)
	if p.Interval() != time.Second {
		t.Errorf("Interval() = %v, want defaulted 1s", p.Interval())
	}
}
