// Package study holds the scheduling core: the mastery score state machine
// and the selector that picks which items a user reviews next.
package study

import "time"

const (
	// MaxScoreBackend is the raw score ceiling stored in the database.
	MaxScoreBackend = 8
	// MaxScoreClient is the client-visible mastery threshold. Raw scores at
	// or above it are in the "mastered" band.
	MaxScoreClient = 4
)

const (
	// masteredCooldown gates items in the mastered band [4, 8).
	masteredCooldown = 30 * time.Minute
	// overMasteredCooldown gates fully mastered items (raw score 8).
	overMasteredCooldown = 7 * 24 * time.Hour
)

// Apply returns the raw score after one review outcome. The increment is
// clamped to a unit step in either direction: the backend never trusts a
// client-supplied magnitude. Demotion out of the mastered band is total,
// not stepwise — a miss on a mastered item sends it back to the learning
// band, and a miss on a fully mastered item restarts the mastered band.
func Apply(score, increment int) int {
	if increment > 1 {
		increment = 1
	} else if increment < -1 {
		increment = -1
	}

	if increment < 0 {
		if score == MaxScoreBackend {
			return MaxScoreClient
		}
		if score >= MaxScoreClient {
			return MaxScoreClient - 1
		}
	}

	score += increment
	if score < 0 {
		return 0
	}
	if score > MaxScoreBackend {
		return MaxScoreBackend
	}
	return score
}

// Compress maps a raw score to its client-facing representation. Scores in
// the mastered band all report as MaxScoreClient; a fully mastered item
// reports one above it so clients can distinguish it. Presentation only —
// stored state always keeps the raw score.
func Compress(raw int) int {
	if raw == MaxScoreBackend {
		return MaxScoreClient + 1
	}
	if raw > MaxScoreClient {
		return MaxScoreClient
	}
	return raw
}

// Due reports whether an item with the given raw score and last review time
// is eligible for review at now. Learning-band items are always due;
// mastered items rest for a short cooldown, fully mastered ones for a long
// one.
func Due(score int, lastSeen, now time.Time) bool {
	if score < MaxScoreClient {
		return true
	}
	if score < MaxScoreBackend {
		return now.Sub(lastSeen) >= masteredCooldown
	}
	return now.Sub(lastSeen) >= overMasteredCooldown
}
