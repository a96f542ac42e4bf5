package study

import (
	"testing"
	"time"
)

func TestApplyBasicSteps(t *testing.T) {
	tests := []struct {
		name      string
		score     int
		increment int
		want      int
	}{
		{"zero up", 0, 1, 1},
		{"zero down clamps", 0, -1, 0},
		{"learning up", 2, 1, 3},
		{"learning down", 2, -1, 1},
		{"into mastered band", 3, 1, 4},
		{"mastered up", 4, 1, 5},
		{"to backend max", 7, 1, 8},
		{"at backend max stays", 8, 1, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(tt.score, tt.increment); got != tt.want {
				t.Errorf("Apply(%d, %d) = %d, want %d", tt.score, tt.increment, got, tt.want)
			}
		})
	}
}

func TestApplyDemotion(t *testing.T) {
	// A miss on a fully mastered item drops it to the mastery threshold, not
	// one step down.
	if got := Apply(8, -1); got != 4 {
		t.Errorf("Apply(8, -1) = %d, want 4", got)
	}
	// A miss anywhere else in the mastered band drops out of the band
	// entirely.
	for _, score := range []int{4, 5, 6, 7} {
		if got := Apply(score, -1); got != 3 {
			t.Errorf("Apply(%d, -1) = %d, want 3", score, got)
		}
	}
}

func TestApplyClampsIncrement(t *testing.T) {
	if got := Apply(2, 5); got != 3 {
		t.Errorf("Apply(2, 5) = %d, want 3 (increment clamped to +1)", got)
	}
	if got := Apply(2, -10); got != 1 {
		t.Errorf("Apply(2, -10) = %d, want 1 (increment clamped to -1)", got)
	}
	if got := Apply(8, -100); got != 4 {
		t.Errorf("Apply(8, -100) = %d, want 4", got)
	}
}

func TestApplyStaysInBounds(t *testing.T) {
	for score := 0; score <= MaxScoreBackend; score++ {
		for _, inc := range []int{1, -1} {
			got := Apply(score, inc)
			if got < 0 || got > MaxScoreBackend {
				t.Errorf("Apply(%d, %d) = %d, out of [0, %d]", score, inc, got, MaxScoreBackend)
			}
		}
	}
}

func TestCompress(t *testing.T) {
	want := map[int]int{0: 0, 1: 1, 2: 2, 3: 3, 4: 4, 5: 4, 6: 4, 7: 4, 8: 5}
	for raw, expected := range want {
		if got := Compress(raw); got != expected {
			t.Errorf("Compress(%d) = %d, want %d", raw, got, expected)
		}
	}
}

func TestDue(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		score    int
		lastSeen time.Time
		want     bool
	}{
		{"learning just reviewed", 0, now, true},
		{"learning band always due", 3, now.Add(-time.Second), true},
		{"mastered 10 minutes ago", 4, now.Add(-10 * time.Minute), false},
		{"mastered 31 minutes ago", 4, now.Add(-31 * time.Minute), true},
		{"mastered exactly at cooldown", 4, now.Add(-30 * time.Minute), true},
		{"upper mastered band still short cooldown", 7, now.Add(-31 * time.Minute), true},
		{"over-mastered one day ago", 8, now.Add(-24 * time.Hour), false},
		{"over-mastered eight days ago", 8, now.Add(-8 * 24 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Due(tt.score, tt.lastSeen, now); got != tt.want {
				t.Errorf("Due(%d, %v) = %v, want %v", tt.score, now.Sub(tt.lastSeen), got, tt.want)
			}
		})
	}
}
