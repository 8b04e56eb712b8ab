package bettingdomain

import (
	"cmp"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Standing is one user's row before ordering.
type Standing struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
	Points      int
	Stars       int
	BetCount    int
}

// LeaderboardEntry is a Standing with its position.
type LeaderboardEntry struct {
	Position int
	Standing
}

// RankStandings orders by points desc, stars desc, then user id so equal
// users always come back in the same order.
func RankStandings(standings []Standing) []LeaderboardEntry {
	sorted := slices.Clone(standings)
	slices.SortFunc(sorted, func(a, b Standing) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Stars, a.Stars); c != 0 {
			return c
		}
		return strings.Compare(a.UserID.String(), b.UserID.String())
	})

	out := make([]LeaderboardEntry, len(sorted))
	for i, s := range sorted {
		out[i] = LeaderboardEntry{Position: i + 1, Standing: s}
	}
	return out
}
