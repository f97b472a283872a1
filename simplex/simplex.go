package simplex

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Simplex pivots until the row being minimized has no negative
// coefficient.
//
// The entering column is the one with the most negative coefficient. The
// leaving row is chosen by the minimum ratio test, ties going to the lowest
// row index. If the entering column has no positive entry the objective is
// not bounded below and ErrUnbounded is returned.
func (t *Tableau) Simplex() error {
	const op = "Simplex"
	if !t.cost {
		return NewError(op, ErrStructure, "cost function not registered")
	}

	for iter := 0; !t.IsMinimum(); iter++ {
		if t.opts.MaxIterations > 0 && iter >= t.opts.MaxIterations {
			t.opts.Logger.Warn("simplex iteration limit reached", "iterations", iter)
			return NewError(op, ErrIterationLimit, "no optimum after %d pivots", iter)
		}

		column, err := t.pivotingColumn()
		if err != nil {
			return err
		}
		row, err := t.pivotingRow(column)
		if err != nil {
			t.opts.Logger.Warn("simplex found an unbounded column", "column", column, "artificial", t.artificial)
			return err
		}
		if err := t.Pivot(row, column); err != nil {
			return err
		}
	}
	return nil
}

// Pivot makes column basic in row: the row is normalized by the pivot
// element and the column is eliminated from every other row.
func (t *Tableau) Pivot(row, column int) error {
	const op = "Pivot"
	if row < 0 || row >= len(t.basic) {
		return NewError(op, ErrInvalidInput, "row %d out of range", row)
	}
	if column < 0 || column >= t.n {
		return NewError(op, ErrInvalidInput, "column %d out of range", column)
	}
	if t.isZero(t.data.At(row, column)) {
		return NewError(op, ErrInvalidInput, "zero pivot element at (%d, %d)", row, column)
	}
	t.pivot(row, column, t.rows)
	return nil
}

// pivot performs the row reduction on the first limit rows.
func (t *Tableau) pivot(row, column, limit int) {
	pr := t.row(row)
	floats.Scale(1/pr[column], pr)
	pr[column] = 1
	for i := 0; i < limit; i++ {
		if i == row {
			continue
		}
		ri := t.row(i)
		if f := ri[column]; f != 0 {
			floats.AddScaled(ri, -f, pr)
			ri[column] = 0
		}
	}

	t.opts.Logger.Debug("pivot",
		"row", row,
		"column", column,
		"leaving", t.basic[row],
		"free_term", pr[t.n])
	t.basic[row] = column
}

// pivotingColumn returns the column with the most negative coefficient in
// the row being minimized.
func (t *Tableau) pivotingColumn() (int, error) {
	idx := t.costRow()
	if idx < 0 {
		return -1, NewError("pivotingColumn", ErrStructure, "cost function not registered")
	}

	column := -1
	minimum := -t.opts.Tolerance
	for j, c := range t.row(idx)[:t.n] {
		if c < minimum {
			column, minimum = j, c
		}
	}
	if column < 0 {
		return -1, NewError("pivotingColumn", ErrStructure, "cost function already minimal")
	}
	return column, nil
}

// pivotingRow applies the minimum ratio test to column.
func (t *Tableau) pivotingRow(column int) (int, error) {
	row := -1
	var ratio float64
	for i := range t.basic {
		r := t.row(i)
		if r[column] <= t.opts.Tolerance {
			continue
		}
		if q := r[t.n] / r[column]; row < 0 || q < ratio {
			row, ratio = i, q
		}
	}
	if row < 0 {
		return -1, NewError("pivotingRow", ErrUnbounded, "cost function not bounded in column %d", column)
	}
	return row, nil
}

// artificialStart is the first artificial column. Artificial columns are
// the last m variable columns.
func (t *Tableau) artificialStart() int {
	return t.n - t.m
}

// DriveOutArtificial removes artificial variables that are still basic at
// zero level after phase 1. Each one is replaced by the first non
// artificial column with a nonzero entry in its row; if there is none the
// constraint is redundant and its row is removed together with the
// artificial column.
func (t *Tableau) DriveOutArtificial() error {
	const op = "DriveOutArtificial"
	if !t.artificial {
		return NewError(op, ErrStructure, "no artificial function registered")
	}

	for i := len(t.basic) - 1; i >= 0; i-- {
		if t.basic[i] < t.artificialStart() || !t.isZero(t.row(i)[t.n]) {
			continue
		}

		r := t.row(i)
		column := slices.IndexFunc(r[:t.artificialStart()], func(v float64) bool { return !t.isZero(v) })
		if column >= 0 {
			// The artificial function row is left as is: its value is
			// zero and it is discarded by DropArtificial.
			t.pivot(i, column, t.m+1)
			continue
		}

		t.opts.Logger.Debug("removing redundant constraint", "row", i, "artificial", t.basic[i])
		t.removeConstraint(i)
	}
	return nil
}

// removeConstraint deletes constraint row i and its basic column.
func (t *Tableau) removeConstraint(i int) {
	column := t.basic[i]
	n, m := t.n-1, t.m-1
	data := mat.NewDense(m+2, n+1, nil)

	dst := 0
	for k := 0; k < t.rows; k++ {
		if k == i {
			continue
		}
		src := t.row(k)
		out := data.RawRowView(dst)
		copy(out, src[:column])
		copy(out[column:], src[column+1:])
		dst++
	}

	basic := slices.Delete(t.basic, i, i+1)
	for k, b := range basic {
		if b > column {
			basic[k] = b - 1
		}
	}

	t.n, t.m = n, m
	t.data = data
	t.basic = basic
	t.rows--
}

// DropArtificial removes the artificial function row and the artificial
// columns once phase 1 is over. It fails with ErrStructure if the
// artificial function is not minimal, and with ErrInfeasible if an
// artificial variable is still basic.
func (t *Tableau) DropArtificial() error {
	const op = "DropArtificial"
	if !t.artificial {
		return NewError(op, ErrStructure, "no artificial function registered")
	}
	if !t.IsMinimum() {
		return NewError(op, ErrStructure, "artificial function is not minimal")
	}
	start := t.artificialStart()
	for i, b := range t.basic {
		if b >= start {
			t.opts.Logger.Warn("artificial variable remains basic", "row", i, "column", b, "value", t.row(i)[t.n])
			return NewError(op, ErrInfeasible, "artificial variable %d is basic in row %d", b, i)
		}
	}

	data := mat.NewDense(t.m+2, start+1, nil)
	for k := 0; k <= t.m; k++ {
		src := t.row(k)
		out := data.RawRowView(k)
		copy(out, src[:start])
		out[start] = src[t.n]
	}

	t.n = start
	t.data = data
	t.rows = t.m + 1
	t.artificial = false
	t.opts.Logger.Debug("artificial variables dropped", "columns", t.n, "rows", t.m)
	return nil
}
