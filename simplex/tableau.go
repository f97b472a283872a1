// Package simplex implements the tableau engine of the two-phase simplex
// method.
//
// A Tableau holds m constraint rows, the cost function row and, during
// phase 1, the artificial cost function row. Every row has n variable
// coefficients followed by the free term. The tableau keeps, for each
// constraint row, the index of its basic variable; after every pivot each
// basic column is an identity column and every cost row is zero on it.
package simplex

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Tableau is the dense simplex tableau.
type Tableau struct {
	n int // variable columns, the free term is column n
	m int // constraint rows

	data *mat.Dense
	rows int

	basic      []int
	cost       bool
	artificial bool

	opts Options
}

// NewTableau creates an empty tableau for n variables and m constraints.
func NewTableau(n, m int, opts ...Option) (*Tableau, error) {
	if n < 1 || m < 0 {
		return nil, NewError("NewTableau", ErrInvalidInput, "need n >= 1 and m >= 0, got n=%d m=%d", n, m)
	}
	return &Tableau{
		n:     n,
		m:     m,
		data:  mat.NewDense(m+2, n+1, nil),
		basic: make([]int, 0, m),
		opts:  NewOptions(opts...),
	}, nil
}

// Dims returns the number of variable columns and constraint rows.
func (t *Tableau) Dims() (n, m int) {
	return t.n, t.m
}

// AddConstraint appends a constraint row whose basic variable is column
// basic. Rows must be added before the cost function.
func (t *Tableau) AddConstraint(constraint []float64, basic int) error {
	const op = "AddConstraint"
	if len(constraint) != t.n+1 {
		return NewError(op, ErrInvalidInput, "wrong size for the constraint: got %d, want %d", len(constraint), t.n+1)
	}
	if basic < 0 || basic >= t.n {
		return NewError(op, ErrInvalidInput, "basic variable %d out of range", basic)
	}
	if slices.Contains(t.basic, basic) {
		return NewError(op, ErrStructure, "basic variable %d is already registered", basic)
	}
	if len(t.basic) >= t.m || t.cost {
		return NewError(op, ErrStructure, "too many constraints registered")
	}

	t.data.SetRow(len(t.basic), constraint)
	t.basic = append(t.basic, basic)
	t.rows++
	return nil
}

// AddCostFunction sets the cost function row. All constraints must be
// registered first.
func (t *Tableau) AddCostFunction(costFunction []float64) error {
	const op = "AddCostFunction"
	if len(costFunction) != t.n+1 {
		return NewError(op, ErrInvalidInput, "wrong size for the cost function: got %d, want %d", len(costFunction), t.n+1)
	}
	if len(t.basic) != t.m {
		return NewError(op, ErrStructure, "too few constraints registered: got %d, want %d", len(t.basic), t.m)
	}
	if t.cost {
		return NewError(op, ErrStructure, "cost function already registered")
	}

	t.data.SetRow(t.m, costFunction)
	t.cost = true
	t.rows = t.m + 1
	return nil
}

// AddArtificialFunction sets the phase 1 cost function row. While it is
// present it is the row minimized by Simplex.
func (t *Tableau) AddArtificialFunction(artificialFunction []float64) error {
	const op = "AddArtificialFunction"
	if len(artificialFunction) != t.n+1 {
		return NewError(op, ErrInvalidInput, "wrong size for the artificial function: got %d, want %d", len(artificialFunction), t.n+1)
	}
	if !t.cost {
		return NewError(op, ErrStructure, "cost function must be registered first")
	}
	if t.artificial {
		return NewError(op, ErrStructure, "artificial function already registered")
	}

	t.data.SetRow(t.m+1, artificialFunction)
	t.artificial = true
	t.rows = t.m + 2
	return nil
}

// Artificial reports whether the phase 1 row is still present.
func (t *Tableau) Artificial() bool {
	return t.artificial
}

// BasicVariables returns a copy of the basic column of every constraint row.
func (t *Tableau) BasicVariables() []int {
	return slices.Clone(t.basic)
}

// Constraints returns a copy of the registered constraint rows.
func (t *Tableau) Constraints() [][]float64 {
	rows := make([][]float64, len(t.basic))
	for i := range rows {
		rows[i] = slices.Clone(t.row(i))
	}
	return rows
}

// CostFunction returns a copy of the row currently being minimized: the
// artificial function during phase 1, the cost function otherwise.
func (t *Tableau) CostFunction() []float64 {
	if idx := t.costRow(); idx >= 0 {
		return slices.Clone(t.row(idx))
	}
	return nil
}

// Matrix returns a copy of all active rows.
func (t *Tableau) Matrix() *mat.Dense {
	if t.rows == 0 {
		return nil
	}
	return mat.DenseCopyOf(t.data.Slice(0, t.rows, 0, t.n+1))
}

// Solution returns the value of every column at the current basic
// solution. Non basic columns are zero.
func (t *Tableau) Solution() []float64 {
	x := make([]float64, t.n)
	for i, b := range t.basic {
		x[b] = t.row(i)[t.n]
	}
	return x
}

func (t *Tableau) String() string {
	m := t.Matrix()
	if m == nil {
		return "[]"
	}
	return fmt.Sprintf("%v basic=%v", mat.Formatted(m, mat.Squeeze()), t.basic)
}

func (t *Tableau) row(i int) []float64 {
	return t.data.RawRowView(i)
}

func (t *Tableau) costRow() int {
	switch {
	case t.artificial:
		return t.m + 1
	case t.cost:
		return t.m
	default:
		return -1
	}
}

// objectiveRows returns the indexes of the cost function rows present.
func (t *Tableau) objectiveRows() []int {
	var rows []int
	if t.cost {
		rows = append(rows, t.m)
	}
	if t.artificial {
		rows = append(rows, t.m+1)
	}
	return rows
}

func (t *Tableau) isZero(v float64) bool {
	return math.Abs(v) <= t.opts.Tolerance
}

// IsCanonical checks that every basic column is an identity column across
// the constraint rows and that every cost row is zero on it.
func (t *Tableau) IsCanonical() bool {
	for i, b := range t.basic {
		for k := range t.basic {
			want := 0.0
			if k == i {
				want = 1
			}
			if !t.isZero(t.data.At(k, b) - want) {
				return false
			}
		}
		for _, k := range t.objectiveRows() {
			if !t.isZero(t.data.At(k, b)) {
				return false
			}
		}
	}
	return true
}

// IsBasicFeasibleSolution checks that the current basic solution is
// feasible: every free term is non negative and, during phase 1, the
// artificial function is zero. The tableau must be canonical.
func (t *Tableau) IsBasicFeasibleSolution() (bool, error) {
	if !t.IsCanonical() {
		return false, NewError("IsBasicFeasibleSolution", ErrStructure, "tableau is not in canonical form")
	}
	for i := range t.basic {
		if t.row(i)[t.n] < -t.opts.Tolerance {
			return false, nil
		}
	}
	if t.artificial && !t.isZero(t.row(t.m + 1)[t.n]) {
		return false, nil
	}
	return true, nil
}

// IsMinimum reports whether every coefficient of the row being minimized,
// the free term excluded, is non negative.
func (t *Tableau) IsMinimum() bool {
	idx := t.costRow()
	if idx < 0 {
		return true
	}
	for _, c := range t.row(idx)[:t.n] {
		if c < -t.opts.Tolerance {
			return false
		}
	}
	return true
}
