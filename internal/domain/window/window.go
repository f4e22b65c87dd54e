// Package window holds the clamping policy shared by every ranged query:
// per-owner workout id ranges and leaderboard rank pages.
package window

import "math"

// Span is a non-empty inclusive range [From, To].
type Span struct {
	From int64
	To   int64
}

// Clamp narrows [from, to] to [lower, upper]. It reports false when nothing
// is left, which callers turn into an empty result rather than an error.
func Clamp(from, to, lower, upper int64) (Span, bool) {
	if from < lower {
		from = lower
	}
	if to > upper {
		to = upper
	}
	if from > to {
		return Span{}, false
	}
	return Span{From: from, To: to}, true
}

// Last returns the span covering the final n positions ending at upper,
// clamped to lower.
func Last(n, lower, upper int64) (Span, bool) {
	return Clamp(upper-n+1, upper, lower, upper)
}

// Len returns the number of positions in the span, saturating at
// math.MaxInt64.
func (s Span) Len() int64 {
	if d := s.To - s.From; d >= 0 && d < math.MaxInt64 {
		return d + 1
	}
	return math.MaxInt64
}

// Each calls fn for every position in ascending order until fn returns false.
func (s Span) Each(fn func(i int64) bool) {
	for i := s.From; i <= s.To; i++ {
		if !fn(i) {
			return
		}
	}
}
