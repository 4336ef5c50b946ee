// Package workload generates the deterministic match documents that every
// flattening candidate is benchmarked against. A match carries a home
// teamsheet of players, each with a nested block of match statistics.
package workload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrInvalidPlayerCount is returned when a negative player count is requested.
var ErrInvalidPlayerCount = errors.New("invalid player count")

// Player positions, assigned by ordinal range.
const (
	PositionForward    = "Forward"
	PositionBack       = "Back"
	PositionSubstitute = "Substitute"
)

// Fixed match metadata.
const (
	MatchID  = 12345
	Date     = "2025-07-27"
	Venue    = "Small Mem Stadium"
	TeamID   = 101
	TeamName = "The Bloody Ingestors"
)

// MatchRecord is a single match as returned by a stats endpoint.
type MatchRecord struct {
	MatchID int    `json:"match_id"`
	Date    string `json:"date"`
	Venue   string `json:"venue"`
	Home    Side   `json:"home"`
	Away    Side   `json:"away"`
}

// Side is one team in a match. The away side is always empty.
type Side struct {
	TeamID    int            `json:"team_id,omitempty"`
	TeamName  string         `json:"team_name,omitempty"`
	Teamsheet []PlayerRecord `json:"teamsheet,omitempty"`
}

// PlayerRecord holds identity fields and nested per-match statistics.
type PlayerRecord struct {
	PlayerID   int        `json:"player_id"`
	Name       string     `json:"name"`
	Position   string     `json:"position"`
	Substitute bool       `json:"substitute"`
	MatchStats MatchStats `json:"match_stats"`
}

// MatchStats are the per-player numeric statistics.
type MatchStats struct {
	Points                int     `json:"points"`
	Tries                 int     `json:"tries"`
	TurnoversConceded     int     `json:"turnovers_conceded"`
	Offload               int     `json:"offload"`
	DominantTackles       int     `json:"dominant_tackles"`
	MissedTackles         int     `json:"missed_tackles"`
	TackleSuccess         float64 `json:"tackle_success"`
	TackleTrySaver        int     `json:"tackle_try_saver"`
	TackleTurnover        int     `json:"tackle_turnover"`
	PenaltyGoals          int     `json:"penalty_goals"`
	MissedPenaltyGoals    int     `json:"missed_penalty_goals"`
	ConversionGoals       int     `json:"conversion_goals"`
	MissedConversionGoals int     `json:"missed_conversion_goals"`
	DropGoalsConverted    int     `json:"drop_goals_converted"`
	DropGoalMissed        int     `json:"drop_goal_missed"`
	Runs                  int     `json:"runs"`
	Metres                int     `json:"metres"`
	CleanBreaks           int     `json:"clean_breaks"`
	DefendersBeaten       int     `json:"defenders_beaten"`
	TryAssists            int     `json:"try_assists"`
	Passes                int     `json:"passes"`
	BadPasses             int     `json:"bad_passes"`
	RucksWon              int     `json:"rucks_won"`
	RucksLost             int     `json:"rucks_lost"`
	LineoutsWon           int     `json:"lineouts_won"`
	PenaltiesConceded     int     `json:"penalties_conceded"`
}

var statKeys = []string{
	"points", "tries", "turnovers_conceded", "offload", "dominant_tackles",
	"missed_tackles", "tackle_success", "tackle_try_saver", "tackle_turnover",
	"penalty_goals", "missed_penalty_goals", "conversion_goals",
	"missed_conversion_goals", "drop_goals_converted", "drop_goal_missed",
	"runs", "metres", "clean_breaks", "defenders_beaten", "try_assists",
	"passes", "bad_passes", "rucks_won", "rucks_lost", "lineouts_won",
	"penalties_conceded",
}

// StatKeys returns the match_stats keys in declaration order.
func StatKeys() []string {
	out := make([]string, len(statKeys))
	copy(out, statKeys)

	return out
}

// IdentityKeys returns the scalar player keys that sit beside match_stats.
func IdentityKeys() []string {
	return []string{"player_id", "name", "position", "substitute"}
}

// Generate builds a match whose home teamsheet has exactly numPlayers
// entries. Every value is a pure function of the player ordinal, so two
// calls with the same argument produce identical matches.
func Generate(numPlayers int) (MatchRecord, error) {
	if numPlayers < 0 {
		return MatchRecord{}, fmt.Errorf("%w: %d", ErrInvalidPlayerCount, numPlayers)
	}

	players := make([]PlayerRecord, 0, numPlayers)
	for i := 1; i <= numPlayers; i++ {
		players = append(players, NewPlayer(i))
	}

	return MatchRecord{
		MatchID: MatchID,
		Date:    Date,
		Venue:   Venue,
		Home: Side{
			TeamID:    TeamID,
			TeamName:  TeamName,
			Teamsheet: players,
		},
	}, nil
}

// NewPlayer returns the player with 1-indexed ordinal i.
func NewPlayer(i int) PlayerRecord {
	return PlayerRecord{
		PlayerID:   i,
		Name:       fmt.Sprintf("Player %d", i),
		Position:   PositionFor(i),
		Substitute: i > 15,
		MatchStats: NewMatchStats(i),
	}
}

// PositionFor maps an ordinal to its position: 1-8 forwards, 9-15 backs,
// everyone else on the bench.
func PositionFor(i int) string {
	switch {
	case i >= 1 && i <= 8:
		return PositionForward
	case i >= 9 && i <= 15:
		return PositionBack
	default:
		return PositionSubstitute
	}
}

// NewMatchStats derives the statistics for ordinal i.
func NewMatchStats(i int) MatchStats {
	return MatchStats{
		Points:                (i % 3) * 5,
		Tries:                 i % 3,
		TurnoversConceded:     i % 4,
		Offload:               i % 5,
		DominantTackles:       i % 10,
		MissedTackles:         i % 5,
		TackleSuccess:         round2(0.85 + float64(i%15)/100),
		TackleTrySaver:        i % 2,
		TackleTurnover:        i % 3,
		PenaltyGoals:          i % 2,
		MissedPenaltyGoals:    i % 2,
		ConversionGoals:       i % 4,
		MissedConversionGoals: i % 4,
		DropGoalsConverted:    i % 1,
		DropGoalMissed:        i % 2,
		Runs:                  i%20 + 5,
		Metres:                (i%20 + 5) * 8,
		CleanBreaks:           i % 4,
		DefendersBeaten:       i % 6,
		TryAssists:            i % 2,
		Passes:                i%30 + 10,
		BadPasses:             i % 5,
		RucksWon:              i % 15,
		RucksLost:             i % 3,
		LineoutsWon:           i % 4,
		PenaltiesConceded:     i % 3,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Map returns the statistics keyed by their JSON names.
func (s MatchStats) Map() map[string]any {
	return map[string]any{
		"points":                  s.Points,
		"tries":                   s.Tries,
		"turnovers_conceded":      s.TurnoversConceded,
		"offload":                 s.Offload,
		"dominant_tackles":        s.DominantTackles,
		"missed_tackles":          s.MissedTackles,
		"tackle_success":          s.TackleSuccess,
		"tackle_try_saver":        s.TackleTrySaver,
		"tackle_turnover":         s.TackleTurnover,
		"penalty_goals":           s.PenaltyGoals,
		"missed_penalty_goals":    s.MissedPenaltyGoals,
		"conversion_goals":        s.ConversionGoals,
		"missed_conversion_goals": s.MissedConversionGoals,
		"drop_goals_converted":    s.DropGoalsConverted,
		"drop_goal_missed":        s.DropGoalMissed,
		"runs":                    s.Runs,
		"metres":                  s.Metres,
		"clean_breaks":            s.CleanBreaks,
		"defenders_beaten":        s.DefendersBeaten,
		"try_assists":             s.TryAssists,
		"passes":                  s.Passes,
		"bad_passes":              s.BadPasses,
		"rucks_won":               s.RucksWon,
		"rucks_lost":              s.RucksLost,
		"lineouts_won":            s.LineoutsWon,
		"penalties_conceded":      s.PenaltiesConceded,
	}
}

// WriteJSON encodes the match to w as a single JSON document.
func (m MatchRecord) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode match: %w", err)
	}

	return nil
}
