// Package tensor provides the dense float64 kernels used by unit selection:
// row-major matrices, batched pairwise distances and a chunked worker fan-out.
package tensor

import (
	"errors"
	"fmt"
)

// Matrix is a dense row-major float64 matrix.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix returns a zero-initialized rows x cols matrix.
func NewMatrix(rows, cols int) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("tensor: invalid matrix shape [%d %d]", rows, cols)
	}

	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

// FromRows copies equally sized rows into a new matrix.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return &Matrix{}, nil
	}

	cols := len(rows[0])
	m := &Matrix{rows: len(rows), cols: cols, data: make([]float64, 0, len(rows)*cols)}

	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("tensor: row %d has %d columns, want %d", i, len(r), cols)
		}

		m.data = append(m.data, r...)
	}

	return m, nil
}

// Wrap builds a matrix over data without copying.
func Wrap(data []float64, rows, cols int) (*Matrix, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("tensor: data length %d does not match shape [%d %d]", len(data), rows, cols)
	}

	return &Matrix{rows: rows, cols: cols, data: data}, nil
}

func (m *Matrix) Rows() int { return m.rows }

func (m *Matrix) Cols() int { return m.cols }

// Row returns row i as a slice aliasing the matrix storage.
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

func (m *Matrix) At(i, j int) float64 { return m.data[i*m.cols+j] }

func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.cols+j] = v }

// Data returns the backing storage.
func (m *Matrix) Data() []float64 { return m.data }

// Argmax returns the index and value of the first maximum of x.
func Argmax(x []float64) (int, float64, error) {
	if len(x) == 0 {
		return -1, 0, errors.New("tensor: argmax of empty slice")
	}

	best := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[best] {
			best = i
		}
	}

	return best, x[best], nil
}
