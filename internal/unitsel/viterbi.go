package unitsel

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/example/go-relp-tts/internal/catalogue"
	"github.com/example/go-relp-tts/internal/runtime/tensor"
	"github.com/example/go-relp-tts/internal/utterance"
)

const (
	DefaultPruneScoreDelta = 0.01
	DefaultPruneNumCands   = 100

	// rowBlock is how many score-matrix rows are computed between context
	// checks.
	rowBlock = 64
)

// CandidateSource supplies the candidate list for a unit name.
// *catalogue.Catalogue satisfies it.
type CandidateSource interface {
	Candidates(name string) ([]*catalogue.CandidateUnit, error)
}

type Options struct {
	// PruneScoreDelta drops nodes scoring below best*(1-delta) after each
	// transition. 0 means DefaultPruneScoreDelta.
	PruneScoreDelta float64
	// PruneNumCands caps the survivors per position. 0 means
	// DefaultPruneNumCands.
	PruneNumCands int
	// Workers computing score-matrix rows. <= 0 uses the tensor default.
	Workers int
	Logger  *slog.Logger
}

// Selector runs the Viterbi search over a candidate source. It holds no
// per-search state and may be shared between goroutines.
type Selector struct {
	source CandidateSource
	cost   CostModel
	opts   Options
	logger *slog.Logger
}

func NewSelector(source CandidateSource, cost CostModel, opts Options) *Selector {
	if opts.PruneScoreDelta == 0 {
		opts.PruneScoreDelta = DefaultPruneScoreDelta
	}

	if opts.PruneNumCands <= 0 {
		opts.PruneNumCands = DefaultPruneNumCands
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Selector{source: source, cost: cost, opts: opts, logger: logger}
}

// ColumnStats summarizes one trellis position after pruning.
type ColumnStats struct {
	Unit       string  `json:"unit"`
	Candidates int     `json:"candidates"`
	Survivors  int     `json:"survivors"`
	Best       float64 `json:"best"`
	Worst      float64 `json:"worst"`
}

// Path is the traceback result: exactly one unit per target, in order.
// Scores holds the cumulative score of the chosen node at each position.
type Path struct {
	Units   []*catalogue.CandidateUnit
	Scores  []float64
	Score   float64
	Columns []ColumnStats
}

// column is one trellis position stored as parallel arrays. back indexes
// the previous column's arrays; it is -1 at position 0.
type column struct {
	cands []*catalogue.CandidateUnit
	back  []int
	score []float64
}

// Select finds the highest-scoring candidate sequence for targets.
//
// Ties are broken toward the lowest index: the first maximal predecessor in
// survivor order, survivors kept in catalogue order, and the first maximal
// terminal node.
func (s *Selector) Select(ctx context.Context, targets []TargetUnit) (*Path, error) {
	if len(targets) == 0 {
		return nil, &utterance.MalformedError{Segment: -1, Reason: "no target units to select"}
	}

	trellis := make([]column, len(targets))
	stats := make([]ColumnStats, len(targets))

	for i := range targets {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("viterbi aborted at position %d: %w", i, err)
		}

		bucket, err := s.source.Candidates(targets[i].Name)
		if err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}

		if len(bucket) == 0 {
			return nil, fmt.Errorf("target %d: %w", i, &catalogue.LookupError{Unit: targets[i].Name})
		}

		var col column
		if i == 0 {
			col = s.initial(&targets[0], bucket)
		} else {
			col, err = s.transition(ctx, &trellis[i-1], &targets[i], bucket)
			if err != nil {
				return nil, fmt.Errorf("viterbi position %d (%s): %w", i, targets[i].Name, err)
			}

			col, err = s.prune(i, targets[i].Name, col)
			if err != nil {
				return nil, err
			}
		}

		trellis[i] = col
		stats[i] = columnStats(targets[i].Name, len(bucket), col)

		s.logger.Debug("viterbi position",
			"index", i,
			"unit", targets[i].Name,
			"candidates", len(bucket),
			"survivors", len(col.cands),
			"best", stats[i].Best,
		)
	}

	return traceback(trellis, stats), nil
}

// initial builds position 0: every candidate scores 0. Over-full buckets
// keep the candidates with the best target score.
func (s *Selector) initial(target *TargetUnit, bucket []*catalogue.CandidateUnit) column {
	keep := make([]int, len(bucket))
	for i := range keep {
		keep[i] = i
	}

	if len(bucket) > s.opts.PruneNumCands {
		ts := make([]float64, len(bucket))
		for i, c := range bucket {
			ts[i] = s.cost.TargetScore(target, c)
		}

		keep = topK(keep, ts, s.opts.PruneNumCands)
	}

	col := column{
		cands: make([]*catalogue.CandidateUnit, len(keep)),
		back:  make([]int, len(keep)),
		score: make([]float64, len(keep)),
	}
	for n, i := range keep {
		col.cands[n] = bucket[i]
		col.back[n] = -1
	}

	return col
}

// transition fills one column: for each candidate c the best predecessor j
// maximizing prev[j] + join(j,c), plus c's target score.
func (s *Selector) transition(ctx context.Context, prev *column, target *TargetUnit, bucket []*catalogue.CandidateUnit) (column, error) {
	left, right, err := joinMatrices(prev.cands, bucket)
	if err != nil {
		return column{}, err
	}

	col := column{
		cands: bucket,
		back:  make([]int, len(bucket)),
		score: make([]float64, len(bucket)),
	}

	dim := left.Cols()

	var (
		mu       sync.Mutex
		firstErr error
	)

	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()

		if firstErr == nil {
			firstErr = err
		}
	}

	tensor.ParallelFor(len(bucket), s.opts.Workers, func(lo, hi int) {
		for b := lo; b < hi; b += rowBlock {
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}

			e := min(b+rowBlock, hi)

			block, err := tensor.Wrap(left.Data()[b*dim:e*dim], e-b, dim)
			if err != nil {
				fail(err)
				return
			}

			scores, err := joinScores(block, right, 1)
			if err != nil {
				fail(err)
				return
			}

			for r := range e - b {
				row := scores.Row(r)
				vecmath.AddBlockInPlace(row, prev.score)

				j, best, _ := tensor.Argmax(row)
				c := b + r
				col.back[c] = j
				col.score[c] = best + s.cost.TargetScore(target, bucket[c])
			}
		}
	})

	if firstErr != nil {
		return column{}, firstErr
	}

	return col, nil
}

// prune applies relative then cap pruning. Survivors stay in candidate
// order. A non-finite score or an empty result is a *ScoreError.
func (s *Selector) prune(pos int, unit string, col column) (column, error) {
	for k, v := range col.score {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return column{}, &ScoreError{Position: pos, Unit: unit, Candidate: col.cands[k].ID, Reason: fmt.Sprintf("score is %v", v)}
		}
	}

	_, best, err := tensor.Argmax(col.score)
	if err != nil {
		return column{}, &ScoreError{Position: pos, Unit: unit, Reason: "no candidates to rank"}
	}

	threshold := best - s.opts.PruneScoreDelta*best

	keep := make([]int, 0, len(col.score))
	for i, v := range col.score {
		if v >= threshold {
			keep = append(keep, i)
		}
	}

	if len(keep) == 0 {
		return column{}, &ScoreError{Position: pos, Unit: unit, Reason: "no candidate survived pruning"}
	}

	if len(keep) > s.opts.PruneNumCands {
		keep = topK(keep, col.score, s.opts.PruneNumCands)
	}

	if len(keep) == len(col.cands) {
		return col, nil
	}

	out := column{
		cands: make([]*catalogue.CandidateUnit, len(keep)),
		back:  make([]int, len(keep)),
		score: make([]float64, len(keep)),
	}
	for n, i := range keep {
		out.cands[n] = col.cands[i]
		out.back[n] = col.back[i]
		out.score[n] = col.score[i]
	}

	return out, nil
}

// topK returns the k indices with the highest score, equal scores ordered
// by index, then re-sorted by index.
func topK(idx []int, score []float64, k int) []int {
	ranked := slices.Clone(idx)
	slices.SortStableFunc(ranked, func(a, b int) int {
		return cmp.Compare(score[b], score[a])
	})

	ranked = ranked[:k]
	slices.Sort(ranked)

	return ranked
}

func columnStats(unit string, candidates int, col column) ColumnStats {
	st := ColumnStats{Unit: unit, Candidates: candidates, Survivors: len(col.cands)}
	if len(col.score) > 0 {
		st.Best, st.Worst = slices.Max(col.score), slices.Min(col.score)
	}

	return st
}

func traceback(trellis []column, stats []ColumnStats) *Path {
	n := len(trellis)
	last := &trellis[n-1]
	idx, best, _ := tensor.Argmax(last.score)

	path := &Path{
		Units:   make([]*catalogue.CandidateUnit, n),
		Scores:  make([]float64, n),
		Score:   best,
		Columns: stats,
	}

	for i := n - 1; i >= 0; i-- {
		col := &trellis[i]
		path.Units[i] = col.cands[idx]
		path.Scores[i] = col.score[idx]
		idx = col.back[idx]
	}

	return path
}
