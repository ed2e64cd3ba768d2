package forest

import "fmt"

// Dataset is the read-only view the trainer consumes. At must be O(1) and safe for
// concurrent readers; the dataset must not be mutated while Train runs.
type Dataset interface {
	// Rows returns the number of rows.
	Rows() int
	// Features returns the number of features per row.
	Features() int
	// At returns the value of feature j in row i.
	At(i, j int) float64
}

// Matrix is a dense row-major Dataset. Layout: [r0_f0..r0_fF-1, r1_f0..r1_fF-1, ...]
type Matrix struct {
	data   []float64
	rows   int
	cols   int
	stride int
}

// NewMatrix wraps data as a rows x cols matrix without copying.
func NewMatrix(rows, cols int, data []float64) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: negative shape (%d, %d)", ErrInvalidDataset, rows, cols)
	}
	if len(data) < rows*cols {
		return nil, fmt.Errorf("%w: %d values cannot hold shape (%d, %d)", ErrInvalidDataset, len(data), rows, cols)
	}
	return &Matrix{data: data, rows: rows, cols: cols, stride: cols}, nil
}

// MatrixFromRows copies rows into a new Matrix. All rows must have the length of the first.
func MatrixFromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return &Matrix{}, nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrInvalidDataset, i, len(r), cols)
		}
		data = append(data, r...)
	}
	return &Matrix{data: data, rows: len(rows), cols: cols, stride: cols}, nil
}

// Rows implements Dataset.
func (m *Matrix) Rows() int { return m.rows }

// Features implements Dataset.
func (m *Matrix) Features() int { return m.cols }

// At implements Dataset.
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.stride+j] }

// Row returns row i as a slice sharing the matrix storage. Callers must not modify it.
func (m *Matrix) Row(i int) []float64 {
	start := i * m.stride
	return m.data[start : start+m.cols : start+m.cols]
}
