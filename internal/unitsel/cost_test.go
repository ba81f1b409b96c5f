package unitsel

import (
	"math"
	"testing"

	"github.com/example/go-relp-tts/internal/catalogue"
	"github.com/example/go-relp-tts/internal/utterance"
)

func TestHalfphoneCost_IdenticalContextScoresOne(t *testing.T) {
	ctx := catalogue.Context{
		NumSyls:        3,
		SylPosition:    utterance.Medial,
		WordPosition:   utterance.Final,
		PhrasePosition: utterance.Initial,
		PrevSegment:    "k",
		NextSegment:    "t",
	}

	got := HalfphoneCost{}.TargetScore(&TargetUnit{Context: ctx}, &catalogue.CandidateUnit{Context: ctx})
	if got != 1.0 {
		t.Fatalf("TargetScore = %v, want exactly 1", got)
	}
}

func TestHalfphoneCost_TotalMismatch(t *testing.T) {
	target := &TargetUnit{Context: catalogue.Context{
		NumSyls: 1, SylPosition: utterance.Initial, WordPosition: utterance.Initial,
		PhrasePosition: utterance.Initial, PrevSegment: "a", NextSegment: "b",
	}}
	cand := &catalogue.CandidateUnit{Context: catalogue.Context{
		NumSyls: 100, SylPosition: utterance.Final, WordPosition: utterance.Medial,
		PhrasePosition: utterance.Final, PrevSegment: "x", NextSegment: "y",
	}}

	got := HalfphoneCost{}.TargetScore(target, cand)
	if want := 0.01 / 6; math.Abs(got-want) > 1e-15 {
		t.Fatalf("TargetScore = %v, want %v", got, want)
	}
}

func TestHalfphoneCost_UndefinedSyllableCountIsNeutral(t *testing.T) {
	target := &TargetUnit{Context: catalogue.Context{NumSyls: 0, PrevSegment: "a"}}
	cand := &catalogue.CandidateUnit{Context: catalogue.Context{NumSyls: 4, PrevSegment: "z"}}

	// ratio 1, four matching indicators (positions, next), prev mismatch
	got := HalfphoneCost{}.TargetScore(target, cand)
	if want := 5.0 / 6; got != want {
		t.Fatalf("TargetScore = %v, want %v", got, want)
	}
}

func TestWordCost(t *testing.T) {
	target := &TargetUnit{Context: catalogue.Context{PrevWord: "the", NextWord: "cat"}}

	cases := []struct {
		prev, next string
		want       float64
	}{
		{"the", "cat", 1},
		{"the", "dog", 0.5},
		{"a", "cat", 0.5},
		{"a", "dog", 0},
	}
	for _, tc := range cases {
		cand := &catalogue.CandidateUnit{Context: catalogue.Context{PrevWord: tc.prev, NextWord: tc.next}}
		if got := (WordCost{}).TargetScore(target, cand); got != tc.want {
			t.Errorf("prev=%s next=%s: score %v, want %v", tc.prev, tc.next, got, tc.want)
		}
	}
}

func joinUnit(left, right []float64) *catalogue.CandidateUnit {
	return &catalogue.CandidateUnit{LeftJoin: left, RightJoin: right}
}

func TestJoinScore_SelfIsOne(t *testing.T) {
	u := joinUnit([]float64{0.3, -1.7, 42.125}, []float64{0.3, -1.7, 42.125})
	if got := JoinScore(u, u); got != 1.0 {
		t.Fatalf("JoinScore(u,u) = %v, want exactly 1", got)
	}
}

func TestJoinScore_MonotoneInDistance(t *testing.T) {
	left := joinUnit(nil, []float64{0, 0})
	prev := math.Inf(1)

	for _, d := range []float64{0, 0.5, 1, 3, 10, 100} {
		got := JoinScore(left, joinUnit([]float64{d, 0}, nil))
		if want := 6 / (6 + d); math.Abs(got-want) > 1e-15 {
			t.Errorf("d=%v: score %v, want %v", d, got, want)
		}

		if got >= prev {
			t.Errorf("d=%v: score %v did not decrease from %v", d, got, prev)
		}

		if got <= 0 || got > 1 {
			t.Errorf("d=%v: score %v outside (0,1]", d, got)
		}

		prev = got
	}
}

func TestJoinScoreMatrix_MatchesScalar(t *testing.T) {
	prev := []*catalogue.CandidateUnit{
		joinUnit([]float64{9, 9}, []float64{0, 0}),
		joinUnit([]float64{9, 9}, []float64{5, 5}),
		joinUnit([]float64{9, 9}, []float64{1, -2}),
	}
	next := []*catalogue.CandidateUnit{
		joinUnit([]float64{0, 0}, nil),
		joinUnit([]float64{5, 5}, nil),
	}

	m, err := JoinScoreMatrix(prev, next, 2)
	if err != nil {
		t.Fatalf("JoinScoreMatrix: %v", err)
	}

	if m.Rows() != len(next) || m.Cols() != len(prev) {
		t.Fatalf("shape [%d %d], want [%d %d]", m.Rows(), m.Cols(), len(next), len(prev))
	}

	for i, n := range next {
		for j, p := range prev {
			if got, want := m.At(i, j), JoinScore(p, n); got != want {
				t.Errorf("[%d][%d] = %v, scalar %v", i, j, got, want)
			}
		}
	}
}

func TestJoinScoreMatrix_WidthMismatch(t *testing.T) {
	prev := []*catalogue.CandidateUnit{joinUnit(nil, []float64{1, 2, 3})}
	next := []*catalogue.CandidateUnit{joinUnit([]float64{1, 2}, nil)}

	if _, err := JoinScoreMatrix(prev, next, 1); err == nil {
		t.Fatal("expected width mismatch error")
	}
}
