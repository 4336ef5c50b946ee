package workload

// Document is the JSON-shaped form of a match: nested maps and slices of
// any. Candidates consume documents rather than typed records so that the
// comparison covers the generic map handling a real ingestion job faces.
type Document map[string]any

// Document converts the match to its nested map form. Integer statistics
// stay int and tackle_success stays float64.
func (m MatchRecord) Document() Document {
	teamsheet := make([]any, 0, len(m.Home.Teamsheet))
	for _, p := range m.Home.Teamsheet {
		teamsheet = append(teamsheet, p.Document())
	}

	return Document{
		"match_id": m.MatchID,
		"date":     m.Date,
		"venue":    m.Venue,
		"home": map[string]any{
			"team_id":   m.Home.TeamID,
			"team_name": m.Home.TeamName,
			"teamsheet": teamsheet,
		},
		"away": map[string]any{},
	}
}

// Document converts the player to its nested map form.
func (p PlayerRecord) Document() map[string]any {
	return map[string]any{
		"player_id":   p.PlayerID,
		"name":        p.Name,
		"position":    p.Position,
		"substitute":  p.Substitute,
		"match_stats": p.MatchStats.Map(),
	}
}

// Clone returns a deep copy. Candidates that consume their input in place
// are handed a clone so that no run can observe another run's mutations.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}

	return Document(cloneMap(d))
}

// Teamsheet returns the home players, or nil when home or teamsheet is
// absent or of the wrong shape.
func (d Document) Teamsheet() []any {
	home, _ := d["home"].(map[string]any)
	players, _ := home["teamsheet"].([]any)

	return players
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Document:
		return Document(cloneMap(t))
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}

		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, item := range t {
			out[i] = cloneMap(item)
		}

		return out
	default:
		return v
	}
}
