package model

import (
	"slices"

	"gonum.org/v1/gonum/floats"

	"q.log/pplan/simplex"
)

// row is a vector of coefficients and its free term.
type row struct {
	coefficients []float64
	freeTerm     float64
}

// standardForm is the model with every constraint turned into an equality.
type standardForm struct {
	// slack holds the column of each slack variable, in the order of the
	// constraints that own them.
	slack       []int
	constraints []row
	// cost is the cost function to minimize.
	cost row
}

// canonicalForm is the standard form with one artificial variable per
// constraint, and the artificial function that phase 1 minimizes.
type canonicalForm struct {
	artificial  []int
	constraints []row
	cost        row
	function    row
}

// convertToStandardForm adds a slack variable to every inequality: +1 for
// <= and -1 for >=. A maximization is turned into the minimization of the
// negated cost function.
func (m *Model) convertToStandardForm() standardForm {
	nvars := len(m.variables)
	nslack := 0
	for _, c := range m.constraints {
		if c.Operator != EQ {
			nslack++
		}
	}

	std := standardForm{
		slack:       make([]int, 0, nslack),
		constraints: make([]row, 0, len(m.constraints)),
	}
	for _, c := range m.constraints {
		coefficients := make([]float64, nvars+nslack)
		copy(coefficients, c.Coefficients)
		if c.Operator != EQ {
			column := nvars + len(std.slack)
			coefficients[column] = 1
			if c.Operator == GTE {
				coefficients[column] = -1
			}
			std.slack = append(std.slack, column)
		}
		std.constraints = append(std.constraints, row{coefficients: coefficients, freeTerm: c.FreeTerm})
	}

	sign := m.cost.Direction.sign()
	cost := make([]float64, nvars+nslack)
	floats.ScaleTo(cost[:nvars], sign, m.cost.Coefficients)
	std.cost = row{coefficients: cost, freeTerm: sign * m.cost.FreeTerm}
	return std
}

// convertToCanonicalForm flips every constraint with a negative free term
// and appends an identity column for its artificial variable. The
// artificial function is the negated sum of the constraints, so it is zero
// on every artificial column.
func (std standardForm) convertToCanonicalForm() canonicalForm {
	nrows := len(std.constraints)
	ncols := len(std.cost.coefficients)

	can := canonicalForm{
		artificial:  make([]int, nrows),
		constraints: make([]row, nrows),
	}

	sum := make([]float64, ncols)
	var sumFree float64
	for i, c := range std.constraints {
		coefficients := make([]float64, ncols+nrows)
		copy(coefficients, c.coefficients)
		freeTerm := c.freeTerm
		if freeTerm < 0 {
			floats.Scale(-1, coefficients[:ncols])
			freeTerm = -freeTerm
		}
		floats.Add(sum, coefficients[:ncols])
		sumFree += freeTerm

		can.artificial[i] = ncols + i
		coefficients[ncols+i] = 1
		can.constraints[i] = row{coefficients: coefficients, freeTerm: freeTerm}
	}

	cost := make([]float64, ncols+nrows)
	copy(cost, std.cost.coefficients)
	can.cost = row{coefficients: cost, freeTerm: std.cost.freeTerm}

	function := make([]float64, ncols+nrows)
	floats.ScaleTo(function[:ncols], -1, sum)
	can.function = row{coefficients: function, freeTerm: -sumFree}
	return can
}

// buildTableau assembles the phase 1 tableau. The artificial variables are
// the initial basis.
//
// Cost rows carry the negated constant of their function: the row
// c.x = -z0 is reduced along with the constraints, so at the optimum its
// free term is the negated optimal value. The artificial function is
// already built that way.
func (can canonicalForm) buildTableau(opts ...simplex.Option) (*simplex.Tableau, error) {
	n := len(can.cost.coefficients)
	t, err := simplex.NewTableau(n, len(can.constraints), opts...)
	if err != nil {
		return nil, err
	}

	for i, c := range can.constraints {
		if err := t.AddConstraint(append(slices.Clone(c.coefficients), c.freeTerm), can.artificial[i]); err != nil {
			return nil, err
		}
	}
	if err := t.AddCostFunction(append(slices.Clone(can.cost.coefficients), -can.cost.freeTerm)); err != nil {
		return nil, err
	}
	if err := t.AddArtificialFunction(append(slices.Clone(can.function.coefficients), can.function.freeTerm)); err != nil {
		return nil, err
	}
	return t, nil
}
