package instance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"q.log/pplan/model"
	"q.log/pplan/simplex"
)

func writeMPS(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problem.mps")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// min -3x1 - 2x2 s.t. x1 + x2 <= 4, x1 + 3x2 <= 6
const lessThan = `NAME LESS
ROWS
 N COST
 L LIM1
 L LIM2
COLUMNS
 X1 COST -3 LIM1 1
 X1 LIM2 1
 X2 COST -2 LIM1 1
 X2 LIM2 3
RHS
 RHS LIM1 4 LIM2 6
ENDATA
`

func TestReader_ReadModel(t *testing.T) {
	m, err := NewReader(writeMPS(t, lessThan)).ReadModel()
	require.NoError(t, err)

	assert.Equal(t, []string{"X1", "X2"}, m.Variables())
	assert.Equal(t, []model.Constraint{
		{Coefficients: []float64{1, 1}, Operator: model.LTE, FreeTerm: 4},
		{Coefficients: []float64{1, 3}, Operator: model.LTE, FreeTerm: 6},
	}, m.Constraints())

	cost, ok := m.CostFunction()
	require.True(t, ok)
	assert.Equal(t, model.Minimize, cost.Direction)
	assert.Equal(t, []float64{-3, -2}, cost.Coefficients)

	sol, err := m.Solve()
	require.NoError(t, err)
	assert.InDelta(t, 4, sol.Values["X1"], 1e-9)
	assert.InDelta(t, 0, sol.Values["X2"], 1e-9)
	assert.InDelta(t, -12, sol.Objective, 1e-9)
}

// min x1 + x2 s.t. x1 + 2x2 >= 4, 3x1 + x2 = 6, 1 <= x1 <= 3, x2 <= 5,
// 2 <= x1 + x2 <= 8.
const bounded = `NAME BOUNDED
ROWS
 N COST
 G GE
 E EQ
 L RNG
COLUMNS
 X1 COST 1 GE 1
 X1 EQ 3 RNG 1
 X2 COST 1 GE 2
 X2 EQ 1 RNG 1
RHS
 RHS GE 4 EQ 6
 RHS RNG 8
RANGES
 RNG RNG 6
BOUNDS
 LO BND X1 1
 UP BND X1 3
 UP BND X2 5
ENDATA
`

func TestReader_ReadModelBounds(t *testing.T) {
	m, err := NewReader(writeMPS(t, bounded)).ReadModel()
	require.NoError(t, err)

	assert.Equal(t, []model.Constraint{
		{Coefficients: []float64{1, 2}, Operator: model.GTE, FreeTerm: 4},
		{Coefficients: []float64{3, 1}, Operator: model.EQ, FreeTerm: 6},
		{Coefficients: []float64{1, 1}, Operator: model.GTE, FreeTerm: 2},
		{Coefficients: []float64{1, 1}, Operator: model.LTE, FreeTerm: 8},
		{Coefficients: []float64{1, 0}, Operator: model.GTE, FreeTerm: 1},
		{Coefficients: []float64{1, 0}, Operator: model.LTE, FreeTerm: 3},
		{Coefficients: []float64{0, 1}, Operator: model.LTE, FreeTerm: 5},
	}, m.Constraints())

	sol, err := m.Solve()
	require.NoError(t, err)
	assert.InDelta(t, 1.6, sol.Values["X1"], 1e-9)
	assert.InDelta(t, 1.2, sol.Values["X2"], 1e-9)
	assert.InDelta(t, 2.8, sol.Objective, 1e-9)
}

func TestReader_ReadModelNegativeLowerBound(t *testing.T) {
	content := `NAME FREE
ROWS
 N COST
 L LIM1
COLUMNS
 X1 COST 1 LIM1 1
RHS
 RHS LIM1 4
BOUNDS
 MI BND X1
ENDATA
`
	_, err := NewReader(writeMPS(t, content)).ReadModel()
	assert.ErrorIs(t, err, simplex.ErrInvalidInput)
}

func TestReader_ReadModelMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.mps")).ReadModel()
	assert.Error(t, err)
}
