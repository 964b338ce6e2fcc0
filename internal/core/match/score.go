// Package match contains the pure candidate-scoring logic used when several
// local users could correspond to the same remote client. No side effects;
// callers apply the result.
package match

import "strings"

// Person carries the fields the scorer compares. Both the remote client and
// each local candidate are reduced to this shape.
type Person struct {
	Email     string
	FirstName string
	LastName  string
}

// Score rates how well candidate matches target. All comparisons are
// case-insensitive; empty fields never match.
//
// Weights: email +2, first name +1, last name +1.
func Score(target, candidate Person) int {
	score := 0
	if equalFold(target.Email, candidate.Email) {
		score += 2
	}
	if equalFold(target.FirstName, candidate.FirstName) {
		score++
	}
	if equalFold(target.LastName, candidate.LastName) {
		score++
	}
	return score
}

// PickBest returns the index of the highest-scoring candidate, or -1 for an
// empty slice. Ties keep the earliest candidate: callers pass candidates in
// a stable query order, and that first-seen order is the tie-break. The
// ordering dependence is deliberate; there is no secondary key.
func PickBest(target Person, candidates []Person) int {
	best := -1
	bestScore := -1
	for i, c := range candidates {
		if s := Score(target, c); s > bestScore {
			best = i
			bestScore = s
		}
	}
	return best
}

func equalFold(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}
