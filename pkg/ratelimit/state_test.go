package ratelimit

import (
	"testing"
	"time"
)

func TestState_IsStale(t *testing.T) {
	tests := []struct {
		name       string
		lastUpdate time.Time
		maxAge     time.Duration
		want       bool
	}{
		{"fresh", time.Now(), time.Minute, false},
		{"just inside window", time.Now().Add(-30 * time.Second), time.Minute, false},
		{"stale", time.Now().Add(-2 * time.Minute), time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &State{LastUpdate: tt.lastUpdate}
			if got := s.IsStale(tt.maxAge); got != tt.want {
				t.Errorf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_Thresholds(t *testing.T) {
	tests := []struct {
		name         string
		remaining    int
		wantBlock    bool
		wantThrottle bool
	}{
		{"empty quota", 0, true, false},
		{"below critical", ThresholdCritical - 1, true, false},
		{"at critical", ThresholdCritical, false, true},
		{"below warning", ThresholdWarning - 1, false, true},
		{"at warning", ThresholdWarning, false, false},
		{"healthy", 5000, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &State{Remaining: tt.remaining}
			if got := s.NeedsCriticalBlock(); got != tt.wantBlock {
				t.Errorf("NeedsCriticalBlock() = %v, want %v", got, tt.wantBlock)
			}
			if got := s.NeedsThrottling(); got != tt.wantThrottle {
				t.Errorf("NeedsThrottling() = %v, want %v", got, tt.wantThrottle)
			}
		})
	}
}

func TestState_TimeUntilReset(t *testing.T) {
	s := &State{ResetAt: time.Now().Add(30 * time.Minute)}
	d := s.TimeUntilReset()
	if d < 29*time.Minute || d > 30*time.Minute {
		t.Errorf("TimeUntilReset() = %v, want ~30m", d)
	}

	s = &State{ResetAt: time.Now().Add(-time.Minute)}
	if got := s.TimeUntilReset(); got != 0 {
		t.Errorf("TimeUntilReset() for past reset = %v, want 0", got)
	}
}

func TestState_UpdateHealth(t *testing.T) {
	s := &State{Remaining: ThresholdHealthy}
	s.UpdateHealth()
	if !s.IsHealthy {
		t.Error("IsHealthy = false at ThresholdHealthy")
	}

	s.Remaining = ThresholdHealthy - 1
	s.UpdateHealth()
	if s.IsHealthy {
		t.Error("IsHealthy = true below ThresholdHealthy")
	}
}
