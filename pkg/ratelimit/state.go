// Package ratelimit tracks Steam Web API call usage against the daily
// per-key call budget. Usage is shared across processes through Redis.
// Tracking is advisory: it logs and exports metrics but never blocks a call.
package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RedisKeyPrefix prefixes every usage counter key.
const RedisKeyPrefix = "workshop:usage:"

// DefaultDailyLimit is the documented Steam Web API budget per key and day.
const DefaultDailyLimit = 100000

// Thresholds for usage warnings, as fractions of the daily limit.
const (
	// WarningRatio logs a warning once this share of the budget is used.
	WarningRatio = 0.80

	// CriticalRatio logs an error once this share of the budget is used.
	CriticalRatio = 0.95
)

// UsageState represents the calls made with one API key on one UTC day.
type UsageState struct {
	// Calls is the number of calls recorded today.
	Calls int64 `json:"calls"`

	// Limit is the daily budget.
	Limit int64 `json:"limit"`

	// Day is the UTC date the counter belongs to (YYYY-MM-DD).
	Day string `json:"day"`

	// ResetAt is the next UTC midnight.
	ResetAt time.Time `json:"reset_at"`
}

// Remaining returns the calls left today, never negative.
func (s *UsageState) Remaining() int64 {
	if s.Calls >= s.Limit {
		return 0
	}
	return s.Limit - s.Calls
}

// IsCritical returns true once usage reaches CriticalRatio of the limit.
func (s *UsageState) IsCritical() bool {
	return s.Limit > 0 && float64(s.Calls) >= float64(s.Limit)*CriticalRatio
}

// NeedsWarning returns true between WarningRatio and CriticalRatio.
func (s *UsageState) NeedsWarning() bool {
	return s.Limit > 0 && float64(s.Calls) >= float64(s.Limit)*WarningRatio && !s.IsCritical()
}

// TimeUntilReset returns the duration until the counter resets.
// Returns 0 if the reset time has already passed.
func (s *UsageState) TimeUntilReset(now time.Time) time.Duration {
	d := s.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Fingerprint identifies an API key without storing it.
func Fingerprint(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:8])
}

// day returns the UTC date of now.
func day(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// nextReset returns the UTC midnight following now.
func nextReset(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// redisKey returns the counter key for apiKey on the day of now.
func redisKey(apiKey string, now time.Time) string {
	return RedisKeyPrefix + Fingerprint(apiKey) + ":" + day(now)
}
