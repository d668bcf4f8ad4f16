// Package zscore normalizes per-player category averages into z-scores that
// can be summed across categories of different units.
package zscore

import (
	"encoding/json"
	"math"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"gonum.org/v1/gonum/stat"
)

// StdFloor replaces a zero standard deviation so a category with no variance
// yields z = 0 for everyone instead of an undefined value.
const StdFloor = 1e-4

// Metric holds the league-wide distribution parameters of one category.
// Counting categories use Mean and Std; ratio categories use WeightedAvg,
// ImpactMean and ImpactStd.
type Metric struct {
	Kind        Kind
	Mean        float64
	Std         float64
	WeightedAvg float64
	ImpactMean  float64
	ImpactStd   float64
}

// Kind distinguishes counting metrics from ratio metrics.
type Kind int

const (
	KindCounting Kind = iota
	KindRatio
)

type countingJSON struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

type ratioJSON struct {
	WeightedAvg float64 `json:"weighted_avg"`
	ImpactMean  float64 `json:"impact_mean"`
	ImpactStd   float64 `json:"impact_std"`
}

// MarshalJSON emits only the fields that apply to the metric's kind.
func (m Metric) MarshalJSON() ([]byte, error) {
	if m.Kind == KindRatio {
		return json.Marshal(ratioJSON{WeightedAvg: m.WeightedAvg, ImpactMean: m.ImpactMean, ImpactStd: m.ImpactStd})
	}
	return json.Marshal(countingJSON{Mean: m.Mean, Std: m.Std})
}

// UnmarshalJSON detects the kind from the keys present.
func (m *Metric) UnmarshalJSON(b []byte) error {
	var fields map[string]float64
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if _, ok := fields["weighted_avg"]; ok {
		*m = Metric{Kind: KindRatio, WeightedAvg: fields["weighted_avg"], ImpactMean: fields["impact_mean"], ImpactStd: fields["impact_std"]}
		return nil
	}
	*m = Metric{Kind: KindCounting, Mean: fields["mean"], Std: fields["std"]}
	return nil
}

// Metrics maps each category with data to its distribution parameters.
type Metrics map[category.Category]Metric

// PlayerZScores is one player's z-score per category. Categories the player
// had no raw inputs for are absent from ZScores.
type PlayerZScores struct {
	Name     string                        `json:"name"`
	Position string                        `json:"position"`
	TeamID   int                           `json:"team_id"`
	TeamName string                        `json:"team_name"`
	ZScores  map[category.Category]float64 `json:"z_scores"`
}

// Get returns the z-score for c, 0 when absent.
func (p PlayerZScores) Get(c category.Category) float64 {
	return p.ZScores[c]
}

// Total sums the player's z-scores over the scoring categories not punted.
func (p PlayerZScores) Total(punt category.Set) float64 {
	var total float64
	for _, c := range punt.Active(category.All()) {
		total += p.Get(c)
	}
	return total
}

// Result is the output of Compute.
type Result struct {
	Players       []PlayerZScores `json:"players"`
	LeagueMetrics Metrics         `json:"league_metrics"`
}

// ByName indexes the players by name. Later duplicates win.
func (r Result) ByName() map[string]PlayerZScores {
	out := make(map[string]PlayerZScores, len(r.Players))
	for _, p := range r.Players {
		out[p.Name] = p
	}
	return out
}

// Compute derives league metrics and per-player z-scores for the whole set.
// An empty input yields an empty result.
func Compute(players []league.PlayerStatLine) Result {
	res := Result{
		Players:       make([]PlayerZScores, len(players)),
		LeagueMetrics: Metrics{},
	}
	for i, p := range players {
		res.Players[i] = PlayerZScores{
			Name:     p.Name,
			Position: p.Position,
			TeamID:   p.TeamID,
			TeamName: p.TeamName,
			ZScores:  map[category.Category]float64{},
		}
	}
	if len(players) == 0 {
		return res
	}

	for _, c := range category.Counting() {
		computeCounting(c, players, &res)
	}
	for _, c := range category.Ratio() {
		computeRatio(c, players, &res)
	}
	return res
}

func computeCounting(c category.Category, players []league.PlayerStatLine, res *Result) {
	idx := make([]int, 0, len(players))
	values := make([]float64, 0, len(players))
	for i, p := range players {
		if v, ok := p.Stats.Counting(c); ok && finite(v) {
			idx = append(idx, i)
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return
	}

	mean, std := meanStd(values)
	m := Metric{Kind: KindCounting, Mean: mean, Std: std}
	res.LeagueMetrics[c] = m

	for j, i := range idx {
		res.Players[i].ZScores[c] = m.countingZ(values[j])
	}
}

// computeRatio weights the league average by makes and attempts (assists
// and turnovers for A/TO), then scores each player's volume-weighted impact
// against it. The two steps have separate eligibility: a player with a
// reported percentage and attempts but no makes still gets an impact.
func computeRatio(c category.Category, players []league.PlayerStatLine, res *Result) {
	var sumNum, sumDen float64
	var contributors int
	for _, p := range players {
		num, den, ok := p.Stats.Shooting(c)
		if !ok || !finite(num, den) {
			continue
		}
		contributors++
		sumNum += num
		sumDen += den
	}
	if contributors == 0 {
		return
	}
	wavg := league.SafeDiv(sumNum, sumDen)

	idx := make([]int, 0, len(players))
	impacts := make([]float64, 0, len(players))
	for i, p := range players {
		v, ok := impact(c, p.Stats, wavg)
		if !ok {
			continue
		}
		idx = append(idx, i)
		impacts = append(impacts, v)
	}
	if len(impacts) == 0 {
		return
	}

	mean, std := meanStd(impacts)
	m := Metric{Kind: KindRatio, WeightedAvg: wavg, ImpactMean: mean, ImpactStd: std}
	res.LeagueMetrics[c] = m

	for j, i := range idx {
		res.Players[i].ZScores[c] = m.ratioZ(impacts[j])
	}
}

// impact is the volume-weighted contribution above or below league average:
// (pct - avg) * attempts for the percentages, AST - TO*avg for A/TO.
func impact(c category.Category, s league.StatLine, wavg float64) (float64, bool) {
	if c == category.AssistToTO {
		ast, to, ok := s.Shooting(c)
		if !ok || !finite(ast, to) {
			return 0, false
		}
		return league.Finite(ast - to*wavg), true
	}
	pct, ok := s.Pct(c)
	if !ok {
		return 0, false
	}
	attempts, ok := s.Attempts(c)
	if !ok || !finite(pct, attempts) {
		return 0, false
	}
	return league.Finite((pct - wavg) * attempts), true
}

func (m Metric) countingZ(v float64) float64 {
	return league.Finite(math.Max(0, (v-m.Mean)/m.Std))
}

func (m Metric) ratioZ(impact float64) float64 {
	return league.Finite((impact - m.ImpactMean) / m.ImpactStd)
}

// Score rates one stat line against metrics computed for a different set of
// players, such as a free agent against the rostered league. Categories
// missing from either side are absent from the result.
func Score(s league.StatLine, metrics Metrics) map[category.Category]float64 {
	out := map[category.Category]float64{}
	for _, c := range category.Counting() {
		m, ok := metrics[c]
		if !ok || m.Kind != KindCounting {
			continue
		}
		if v, ok := s.Counting(c); ok && finite(v) {
			out[c] = m.countingZ(v)
		}
	}
	for _, c := range category.Ratio() {
		m, ok := metrics[c]
		if !ok || m.Kind != KindRatio {
			continue
		}
		if v, ok := impact(c, s, m.WeightedAvg); ok {
			out[c] = m.ratioZ(v)
		}
	}
	return out
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// meanStd returns the population mean and standard deviation of the finite
// values, with the deviation floored at StdFloor.
func meanStd(values []float64) (float64, float64) {
	kept := make([]float64, 0, len(values))
	for _, v := range values {
		if finite(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return 0, StdFloor
	}
	mean, std := stat.PopMeanStdDev(kept, nil)
	mean, std = league.Finite(mean), league.Finite(std)
	if std == 0 {
		std = StdFloor
	}
	return mean, std
}
