package ratelimit

import (
	"testing"
	"time"
)

func TestUsageState_Thresholds(t *testing.T) {
	tests := []struct {
		name         string
		calls        int64
		wantWarning  bool
		wantCritical bool
		wantRemain   int64
	}{
		{name: "healthy", calls: 10, wantRemain: 990},
		{name: "at warning", calls: 800, wantWarning: true, wantRemain: 200},
		{name: "below critical", calls: 949, wantWarning: true, wantRemain: 51},
		{name: "at critical", calls: 950, wantCritical: true, wantRemain: 50},
		{name: "over limit", calls: 1200, wantCritical: true, wantRemain: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &UsageState{Calls: tt.calls, Limit: 1000}
			if got := s.NeedsWarning(); got != tt.wantWarning {
				t.Errorf("NeedsWarning() = %v, want %v", got, tt.wantWarning)
			}
			if got := s.IsCritical(); got != tt.wantCritical {
				t.Errorf("IsCritical() = %v, want %v", got, tt.wantCritical)
			}
			if got := s.Remaining(); got != tt.wantRemain {
				t.Errorf("Remaining() = %d, want %d", got, tt.wantRemain)
			}
		})
	}
}

func TestUsageState_TimeUntilReset(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	s := &UsageState{ResetAt: nextReset(now)}

	if got := s.TimeUntilReset(now); got != time.Hour {
		t.Errorf("TimeUntilReset() = %v, want 1h", got)
	}
	if got := s.TimeUntilReset(now.Add(2 * time.Hour)); got != 0 {
		t.Errorf("TimeUntilReset() after reset = %v, want 0", got)
	}
}

func TestNextReset_MonthBoundary(t *testing.T) {
	now := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	want := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if got := nextReset(now); !got.Equal(want) {
		t.Errorf("nextReset() = %v, want %v", got, want)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("key-a")
	if len(a) != 16 {
		t.Errorf("Fingerprint length = %d, want 16", len(a))
	}
	if a == Fingerprint("key-b") {
		t.Error("different keys produced the same fingerprint")
	}
	if a != Fingerprint("key-a") {
		t.Error("Fingerprint is not deterministic")
	}
}

func TestRedisKey_DoesNotContainAPIKey(t *testing.T) {
	key := redisKey("SUPERSECRET", time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
	want := RedisKeyPrefix + Fingerprint("SUPERSECRET") + ":2026-05-04"
	if key != want {
		t.Errorf("redisKey() = %q, want %q", key, want)
	}
}
