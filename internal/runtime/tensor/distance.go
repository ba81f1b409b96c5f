package tensor

import (
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// PairwiseEuclidean returns the [a.Rows(), b.Rows()] matrix of Euclidean
// distances between the rows of a and the rows of b. Rows of the output are
// computed in parallel across up to maxWorkers goroutines (<= 0 uses the
// package default).
//
// Differences are formed by adding a pre-negated copy of b, so identical rows
// always produce a distance of exactly 0.
func PairwiseEuclidean(a, b *Matrix, maxWorkers int) (*Matrix, error) {
	if a.cols != b.cols {
		return nil, fmt.Errorf("tensor: pairwise distance dimension mismatch: %d vs %d", a.cols, b.cols)
	}

	out, err := NewMatrix(a.rows, b.rows)
	if err != nil {
		return nil, err
	}

	if a.rows == 0 || b.rows == 0 {
		return out, nil
	}

	negB := make([]float64, len(b.data))
	vecmath.ScaleBlock(negB, b.data, -1)

	dim := a.cols

	ParallelFor(a.rows, maxWorkers, func(lo, hi int) {
		diff := make([]float64, dim)

		for i := lo; i < hi; i++ {
			ai := a.Row(i)
			dst := out.Row(i)

			for j := range b.rows {
				if dim == 0 {
					dst[j] = 0
					continue
				}

				vecmath.AddBlock(diff, ai, negB[j*dim:(j+1)*dim])
				dst[j] = math.Sqrt(vecmath.DotProduct(diff, diff))
			}
		}
	})

	return out, nil
}
