package unitsel

import (
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/example/go-relp-tts/internal/catalogue"
	"github.com/example/go-relp-tts/internal/runtime/tensor"
)

// JoinScale is K in the join score K/(K+d).
const JoinScale = 6.0

// CostModel scores how well a candidate matches a target, in [0,1].
type CostModel interface {
	TargetScore(target *TargetUnit, cand *catalogue.CandidateUnit) float64
}

// HalfphoneCost averages a syllable-count ratio and five exact-match
// indicators over the half-phone context.
type HalfphoneCost struct{}

func (HalfphoneCost) TargetScore(target *TargetUnit, cand *catalogue.CandidateUnit) float64 {
	t, c := &target.Context, &cand.Context

	score := 1.0
	if t.NumSyls > 0 && c.NumSyls > 0 {
		score = float64(min(t.NumSyls, c.NumSyls)) / float64(max(t.NumSyls, c.NumSyls))
	}

	score += match(t.SylPosition == c.SylPosition)
	score += match(t.WordPosition == c.WordPosition)
	score += match(t.PhrasePosition == c.PhrasePosition)
	score += match(t.NextSegment == c.NextSegment)
	score += match(t.PrevSegment == c.PrevSegment)

	return score / 6
}

// WordCost gives half credit each for a matching previous and next word.
type WordCost struct{}

func (WordCost) TargetScore(target *TargetUnit, cand *catalogue.CandidateUnit) float64 {
	return 0.5*match(target.Context.PrevWord == cand.Context.PrevWord) +
		0.5*match(target.Context.NextWord == cand.Context.NextWord)
}

func match(ok bool) float64 {
	if ok {
		return 1
	}

	return 0
}

// JoinScore scores the join between left and the following unit right from
// the distance between left's right-join and right's left-join vectors.
func JoinScore(left, right *catalogue.CandidateUnit) float64 {
	a, b := right.LeftJoin, left.RightJoin
	if len(a) != len(b) {
		return 0
	}

	neg := make([]float64, len(b))
	diff := make([]float64, len(a))

	vecmath.ScaleBlock(neg, b, -1)
	vecmath.AddBlock(diff, a, neg)

	return joinScoreFromDistance(math.Sqrt(vecmath.DotProduct(diff, diff)))
}

func joinScoreFromDistance(d float64) float64 {
	return JoinScale / (JoinScale + d)
}

// JoinScoreMatrix scores every (next, prev) pair at once: row i, column j is
// the join score of prev[j] followed by next[i].
func JoinScoreMatrix(prev, next []*catalogue.CandidateUnit, workers int) (*tensor.Matrix, error) {
	left, right, err := joinMatrices(prev, next)
	if err != nil {
		return nil, err
	}

	return joinScores(left, right, workers)
}

// joinScores scores every row of left (next units' left joins) against every
// row of right (previous units' right joins).
func joinScores(left, right *tensor.Matrix, workers int) (*tensor.Matrix, error) {
	dist, err := tensor.PairwiseEuclidean(left, right, workers)
	if err != nil {
		return nil, err
	}

	data := dist.Data()
	for i, d := range data {
		data[i] = joinScoreFromDistance(d)
	}

	return dist, nil
}

// joinMatrices packs the left-join vectors of next and the right-join
// vectors of prev into matrices of equal width.
func joinMatrices(prev, next []*catalogue.CandidateUnit) (left, right *tensor.Matrix, err error) {
	rows := make([][]float64, len(next))
	for i, c := range next {
		rows[i] = c.LeftJoin
	}

	if left, err = tensor.FromRows(rows); err != nil {
		return nil, nil, fmt.Errorf("left join vectors: %w", err)
	}

	rows = make([][]float64, len(prev))
	for j, c := range prev {
		rows[j] = c.RightJoin
	}

	if right, err = tensor.FromRows(rows); err != nil {
		return nil, nil, fmt.Errorf("right join vectors: %w", err)
	}

	if left.Cols() != right.Cols() {
		return nil, nil, fmt.Errorf("join vector width %d does not match %d", left.Cols(), right.Cols())
	}

	return left, right, nil
}
