// Package instance loads linear programs from MPS files.
package instance

import (
	"fmt"
	"math"
	"runtime"

	"github.com/lukpank/go-glpk/glpk"

	"q.log/pplan/model"
	"q.log/pplan/simplex"
)

// Reader reads a free MPS file to construct a model.
type Reader struct {
	filename string
	opts     []simplex.Option
}

// NewReader returns a reader for filename. The options are passed to the
// model it builds.
func NewReader(filename string, opts ...simplex.Option) *Reader {
	return &Reader{
		filename: filename,
		opts:     opts,
	}
}

// ReadModel parses the file and returns its model.
//
// Rows bounded on both sides become two constraints and fixed rows become
// equalities. Free rows other than the objective are ignored. Finite
// column bounds become constraints; lower bounds must not be negative,
// since every model variable is >= 0.
func (r *Reader) ReadModel() (*model.Model, error) {
	// GLPK keeps per thread state.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	lp := glpk.New()
	defer lp.Delete()
	if err := lp.ReadMPS(glpk.MPS_FILE, nil, r.filename); err != nil {
		return nil, fmt.Errorf("read %s: %w", r.filename, err)
	}

	ncols := lp.NumCols()
	if ncols == 0 {
		return nil, simplex.NewError("ReadModel", simplex.ErrInvalidInput, "%s has no columns", r.filename)
	}

	variables := make([]string, ncols)
	for c := range ncols {
		variables[c] = lp.ColName(c + 1)
		if variables[c] == "" {
			variables[c] = fmt.Sprintf("x%d", c+1)
		}
	}
	m, err := model.NewModel(variables, r.opts...)
	if err != nil {
		return nil, err
	}

	// populate constraints
	for row := 1; row <= lp.NumRows(); row++ {
		coefficients := make([]float64, ncols)
		idxs, vals := lp.MatRow(row)
		for i, v := range idxs {
			if v == 0 {
				continue
			}
			coefficients[v-1] = vals[i]
		}

		lb, ub := lp.RowLB(row), lp.RowUB(row)
		if err := addBounded(m, coefficients, lb, ub); err != nil {
			return nil, fmt.Errorf("row %q: %w", lp.RowName(row), err)
		}
	}

	// column bounds
	for c := range ncols {
		lb, ub := lp.ColLB(c+1), lp.ColUB(c+1)
		if lb < 0 {
			return nil, simplex.NewError("ReadModel", simplex.ErrInvalidInput,
				"column %q: lower bound %v is negative", variables[c], lb)
		}
		if lb == 0 {
			lb = -math.MaxFloat64
		}
		unit := make([]float64, ncols)
		unit[c] = 1
		if err := addBounded(m, unit, lb, ub); err != nil {
			return nil, fmt.Errorf("column %q: %w", variables[c], err)
		}
	}

	// populate obj function
	cost := make([]float64, ncols)
	for c := range ncols {
		cost[c] = lp.ObjCoef(c + 1)
	}
	direction := model.Minimize
	if lp.ObjDir() == glpk.MAX {
		direction = model.Maximize
	}
	if err := m.AddCostFunction(direction, cost, lp.ObjCoef(0)); err != nil {
		return nil, err
	}

	return m, nil
}

// addBounded adds lb <= a.x <= ub. GLPK reports a missing bound as
// -+math.MaxFloat64.
func addBounded(m *model.Model, coefficients []float64, lb, ub float64) error {
	lower := lb != -math.MaxFloat64
	upper := ub != math.MaxFloat64

	switch {
	case lower && upper && lb == ub:
		return m.AddConstraint(coefficients, model.EQ, lb)
	case lower && upper:
		if err := m.AddConstraint(coefficients, model.GTE, lb); err != nil {
			return err
		}
		return m.AddConstraint(coefficients, model.LTE, ub)
	case lower:
		return m.AddConstraint(coefficients, model.GTE, lb)
	case upper:
		return m.AddConstraint(coefficients, model.LTE, ub)
	}
	return nil
}
