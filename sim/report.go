package sim

import (
	"fmt"

	"github.com/hashfront/autoplay/strategy"
)

// MatchupStats aggregates the results of repeated games between two presets
// with preset one seated as player 1.
type MatchupStats struct {
	P1, P2       string
	Games        int
	P1Wins       int
	AvgRounds    float64
	AvgP1Kills   float64
	AvgP2Kills   float64
	HQCaptures   int
	Eliminations int
	Timeouts     int
}

// P1WinRate returns player 1's win percentage.
func (m MatchupStats) P1WinRate() float64 {
	if m.Games == 0 {
		return 0
	}
	return float64(m.P1Wins) / float64(m.Games) * 100
}

// RunMatchups plays every ordered preset pairing games times on the given
// scenario. Seeds derive from the base seed, the pairing index and the game
// index, so a rerun with the same arguments reproduces every match.
func RunMatchups(m *Map, presets []strategy.Strategy, games int, baseSeed int64) ([]MatchupStats, error) {
	var out []MatchupStats
	for i, p1 := range presets {
		for j, p2 := range presets {
			stats := MatchupStats{P1: p1.Name, P2: p2.Name, Games: games}
			var rounds, k1, k2 int
			for n := 0; n < games; n++ {
				seed := baseSeed + int64((i*len(presets)+j)*games+n)
				res, err := Play(m, p1, p2, seed)
				if err != nil {
					return nil, fmt.Errorf("%s vs %s game %d: %w", p1.Name, p2.Name, n+1, err)
				}
				if res.Winner == 1 {
					stats.P1Wins++
				}
				rounds += res.Rounds
				k1 += res.P1Kills
				k2 += res.P2Kills
				switch res.WinType {
				case WinHQCapture:
					stats.HQCaptures++
				case WinElimination:
					stats.Eliminations++
				case WinTimeout:
					stats.Timeouts++
				}
			}
			if games > 0 {
				stats.AvgRounds = float64(rounds) / float64(games)
				stats.AvgP1Kills = float64(k1) / float64(games)
				stats.AvgP2Kills = float64(k2) / float64(games)
			}
			out = append(out, stats)
		}
	}
	return out, nil
}
