package flatten

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/weiihann/flatbench/pipeline"
	"github.com/weiihann/flatbench/workload"
)

// Separator joins nested keys.
const Separator = "_"

const statsPrefix = "match_stats" + Separator

// Manual reads every field by name. It is the fully static reference:
// absent statistics come out as nil.
func Manual(doc workload.Document) ([]Row, error) {
	list := players(doc)

	rows := make([]Row, 0, len(list))
	for _, p := range list {
		s := stats(p)
		rows = append(rows, Row{
			"player_id":               p["player_id"],
			"name":                    p["name"],
			"position":                p["position"],
			"substitute":              p["substitute"],
			"points":                  s["points"],
			"tries":                   s["tries"],
			"turnovers_conceded":      s["turnovers_conceded"],
			"offload":                 s["offload"],
			"dominant_tackles":        s["dominant_tackles"],
			"missed_tackles":          s["missed_tackles"],
			"tackle_success":          s["tackle_success"],
			"tackle_try_saver":        s["tackle_try_saver"],
			"tackle_turnover":         s["tackle_turnover"],
			"penalty_goals":           s["penalty_goals"],
			"missed_penalty_goals":    s["missed_penalty_goals"],
			"conversion_goals":        s["conversion_goals"],
			"missed_conversion_goals": s["missed_conversion_goals"],
			"drop_goals_converted":    s["drop_goals_converted"],
			"drop_goal_missed":        s["drop_goal_missed"],
			"runs":                    s["runs"],
			"metres":                  s["metres"],
			"clean_breaks":            s["clean_breaks"],
			"defenders_beaten":        s["defenders_beaten"],
			"try_assists":             s["try_assists"],
			"passes":                  s["passes"],
			"bad_passes":              s["bad_passes"],
			"rucks_won":               s["rucks_won"],
			"rucks_lost":              s["rucks_lost"],
			"lineouts_won":            s["lineouts_won"],
			"penalties_conceded":      s["penalties_conceded"],
		})
	}

	return rows, nil
}

// Unpack copies the identity fields and merges the statistics map into a
// new row.
func Unpack(doc workload.Document) ([]Row, error) {
	list := players(doc)

	rows := make([]Row, 0, len(list))
	for _, p := range list {
		s := stats(p)

		row := make(Row, 4+len(s))
		row["player_id"] = p["player_id"]
		row["name"] = p["name"]
		row["position"] = p["position"]
		row["substitute"] = p["substitute"]

		for k, v := range s {
			row[k] = v
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// Recursive keeps every non-statistics player field and flattens the
// statistics with a generic recursive walk, so nested blocks inside
// match_stats come out as joined keys.
func Recursive(doc workload.Document) ([]Row, error) {
	list := players(doc)

	rows := make([]Row, 0, len(list))
	for _, p := range list {
		row := make(Row, len(p)+26)
		for k, v := range p {
			if k != "match_stats" {
				row[k] = v
			}
		}

		walk(stats(p), "", func(key string, v any) {
			row[key] = v
		})

		rows = append(rows, row)
	}

	return rows, nil
}

func walk(m map[string]any, prefix string, emit func(key string, v any)) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + Separator + k
		}

		if nested, ok := v.(map[string]any); ok {
			walk(nested, key, emit)

			continue
		}

		emit(key, v)
	}
}

// GJSON encodes the document and walks the teamsheet with gjson, flattening
// each player object the way a generic JSON normaliser would and then
// stripping the match_stats prefix from the column names. Numbers come back
// as float64.
func GJSON(doc workload.Document) ([]Row, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	sheet := gjson.GetBytes(raw, "home.teamsheet")
	if !sheet.IsArray() {
		return []Row{}, nil
	}

	rows := make([]Row, 0, int(gjson.GetBytes(raw, "home.teamsheet.#").Int()))

	sheet.ForEach(func(_, player gjson.Result) bool {
		row := Row{}
		normalize(player, "", row)
		rows = append(rows, row)

		return true
	})

	return rows, nil
}

func normalize(obj gjson.Result, prefix string, row Row) {
	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if prefix != "" {
			name = prefix + Separator + name
		}

		if value.IsObject() {
			normalize(value, name, row)
		} else {
			row[strings.TrimPrefix(name, statsPrefix)] = value.Value()
		}

		return true
	})
}

// FlatMapInPlace pops each player's statistics, flattens them and merges
// them back into the player map, which becomes the row.
func FlatMapInPlace(doc workload.Document) ([]Row, error) {
	list := players(doc)

	rows := make([]Row, 0, len(list))
	for _, p := range list {
		rows = append(rows, unnest(p))
	}

	return rows, nil
}

// Pipeline streams the teamsheet through a source stage and an unnesting
// stage.
func Pipeline(doc workload.Document) ([]Row, error) {
	src := pipeline.FromSlice("players_teamsheet", players(doc))

	p := pipeline.New(src)
	if err := p.AddStage(pipeline.NewStage("player_stats", unnestStage)); err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	out, err := p.Collect()
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	rows := make([]Row, 0, len(out))
	for _, m := range out {
		rows = append(rows, Row(m))
	}

	return rows, nil
}

func unnestStage(p map[string]any) (map[string]any, error) {
	return unnest(p), nil
}

// unnest removes match_stats from p and merges its flattened contents.
func unnest(p map[string]any) Row {
	s := stats(p)
	delete(p, "match_stats")

	for k, v := range NewFlatMap(s, Separator) {
		p[k] = v
	}

	return Row(p)
}
