// Package rating implements the Elo update applied to a league's ladder after every
// recorded match.
package rating

import "math"

const (
	// KFactor is the maximum number of rating points exchanged in one match.
	KFactor = 32
	// InitialRating is assigned to every membership when a player joins a league.
	InitialRating = 1400
	MinRating     = 0
	MaxRating     = 10000
)

// ExpectedScore returns the probability that a player rated rating beats a player
// rated opponent.
func ExpectedScore(rating, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-rating)/400))
}

// Recalculate returns the new ratings of the winner and the loser of a single match.
// Results are clamped to [MinRating, MaxRating] and then rounded half away from zero.
func Recalculate(winnerRating, loserRating, kFactor int) (int, int) {
	expectedW := ExpectedScore(winnerRating, loserRating)
	expectedL := ExpectedScore(loserRating, winnerRating)

	k := float64(kFactor)
	newW := clampRound(float64(winnerRating) + k*(1-expectedW))
	newL := clampRound(float64(loserRating) + k*(0-expectedL))
	return newW, newL
}

func clampRound(raw float64) int {
	return int(math.Round(math.Max(MinRating, math.Min(MaxRating, raw))))
}
