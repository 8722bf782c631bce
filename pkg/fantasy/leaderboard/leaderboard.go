// Package leaderboard provides view helpers over the server's leaderboard
// responses. Server ranking is authoritative; these helpers only order and
// slice rows for display.
package leaderboard

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/pitchsix/crickpick/pkg/fantasy/api"
)

func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

// SortEntries orders overall rows by points descending, breaking ties by
// username with locale-aware, case-insensitive comparison.
func SortEntries(entries []api.LeaderboardEntry) {
	c := newCollator()
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return c.CompareString(entries[i].Username, entries[j].Username) < 0
	})
}

// SortMatchEntries orders per-match rows the same way.
func SortMatchEntries(entries []api.MatchLeaderboardEntry) {
	c := newCollator()
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].PointsInMatch != entries[j].PointsInMatch {
			return entries[i].PointsInMatch > entries[j].PointsInMatch
		}
		return c.CompareString(entries[i].Username, entries[j].Username) < 0
	})
}

// Standings returns a sorted copy with ranks assigned 1..n. Rows with equal
// points share the rank of the first of them, and the next distinct score
// resumes at its positional rank.
func Standings(entries []api.LeaderboardEntry) []api.LeaderboardEntry {
	out := make([]api.LeaderboardEntry, len(entries))
	copy(out, entries)
	SortEntries(out)

	for i := range out {
		if i > 0 && out[i].TotalPoints == out[i-1].TotalPoints {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// TopN returns the first n rows of the standings, fewer when the board is
// shorter.
func TopN(entries []api.LeaderboardEntry, n int) []api.LeaderboardEntry {
	standings := Standings(entries)
	if n < 0 {
		n = 0
	}
	if n > len(standings) {
		n = len(standings)
	}
	return standings[:n]
}
