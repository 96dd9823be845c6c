package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardScaler(t *testing.T) {
	rows := [][]float64{
		{1, 10, 5},
		{2, 10, 7},
		{3, 10, 9},
	}

	var s standardScaler
	scaled := s.fitTransform(rows)
	require.Len(t, scaled, 3)

	// Column 0 centers on 2 and scales to unit variance.
	assert.InDelta(t, -1.224744871391589, scaled[0][0], 1e-9)
	assert.InDelta(t, 0, scaled[1][0], 1e-12)
	assert.InDelta(t, 1.224744871391589, scaled[2][0], 1e-9)

	// A constant column centers to 0 without dividing by zero.
	for i := range scaled {
		assert.Equal(t, 0.0, scaled[i][1])
	}

	// transform applies the fitted parameters to unseen rows.
	out := s.transform([][]float64{{2, 10, 7}})
	assert.Equal(t, []float64{0, 0, 0}, out[0])
}
