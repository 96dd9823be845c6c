// internal/engine/forecast/scaler.go
package forecast

import "math"

// standardScaler centers each feature column to zero mean and unit variance.
// Scaler state is owned by the strategy instance that fit it, never shared
// across forecasters.
type standardScaler struct {
	mean []float64
	std  []float64
}

func (s *standardScaler) fit(rows [][]float64) {
	if len(rows) == 0 {
		return
	}
	cols := len(rows[0])
	s.mean = make([]float64, cols)
	s.std = make([]float64, cols)

	for j := 0; j < cols; j++ {
		var sum float64
		for _, row := range rows {
			sum += row[j]
		}
		s.mean[j] = sum / float64(len(rows))

		var ss float64
		for _, row := range rows {
			d := row[j] - s.mean[j]
			ss += d * d
		}
		s.std[j] = math.Sqrt(ss / float64(len(rows)))
		if s.std[j] == 0 {
			// constant column, leave values centered at 0
			s.std[j] = 1
		}
	}
}

func (s *standardScaler) transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled := make([]float64, len(row))
		for j := range row {
			scaled[j] = (row[j] - s.mean[j]) / s.std[j]
		}
		out[i] = scaled
	}
	return out
}

func (s *standardScaler) fitTransform(rows [][]float64) [][]float64 {
	s.fit(rows)
	return s.transform(rows)
}
