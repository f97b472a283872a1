// Package model builds linear programs in general form and solves them
// with the two-phase simplex method.
//
// A Model has named variables, all of them implicitly >= 0, constraints of
// the form
//
//	a_1 x_1 + a_2 x_2 + ... + a_n x_n OP b    (OP is =, <= or >=)
//
// and a single cost function
//
//	minimize (or maximize) z = c_1 x_1 + c_2 x_2 + ... + c_n x_n + z_0
package model

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"

	"q.log/pplan/simplex"
)

// relTolerance bounds the relative difference between the objective read
// from the tableau and the cost function evaluated at the solution.
const relTolerance = 1e-6

// Operator is the relational operator of a constraint.
type Operator string

const (
	EQ  Operator = "="
	LTE Operator = "<="
	GTE Operator = ">="
)

func (o Operator) valid() bool {
	return o == EQ || o == LTE || o == GTE
}

// Direction is the optimization direction of the cost function.
type Direction string

const (
	Minimize Direction = "-"
	Maximize Direction = "+"
)

func (d Direction) valid() bool {
	return d == Minimize || d == Maximize
}

// sign is the factor that turns the cost function into a minimization.
func (d Direction) sign() float64 {
	if d == Maximize {
		return -1
	}
	return 1
}

// Constraint is a constraint in general form.
type Constraint struct {
	Coefficients []float64
	Operator     Operator
	FreeTerm     float64
}

// CostFunction is the objective in general form.
type CostFunction struct {
	Direction    Direction
	Coefficients []float64
	FreeTerm     float64
}

// Model is a linear program over named variables.
type Model struct {
	variables []string
	index     map[string]int

	constraints []Constraint
	cost        *CostFunction

	opts []simplex.Option
	log  *slog.Logger
}

// NewModel creates a model for the given variables. The position of each
// name is the index of its coefficient in AddConstraint and
// AddCostFunction. The options are passed to the tableau built by Solve.
func NewModel(variables []string, opts ...simplex.Option) (*Model, error) {
	const op = "NewModel"
	if len(variables) == 0 {
		return nil, simplex.NewError(op, simplex.ErrInvalidInput, "at least one variable is required")
	}

	index := make(map[string]int, len(variables))
	for i, name := range variables {
		if strings.TrimSpace(name) == "" {
			return nil, simplex.NewError(op, simplex.ErrInvalidInput, "variable %d has an empty name", i)
		}
		if _, ok := index[name]; ok {
			return nil, simplex.NewError(op, simplex.ErrInvalidInput, "duplicated variable %q", name)
		}
		index[name] = i
	}

	return &Model{
		variables: slices.Clone(variables),
		index:     index,
		opts:      opts,
		log:       simplex.NewOptions(opts...).Logger,
	}, nil
}

// Variables returns the variable names in declaration order.
func (m *Model) Variables() []string {
	return slices.Clone(m.variables)
}

// Constraints returns the constraints in declaration order.
func (m *Model) Constraints() []Constraint {
	out := make([]Constraint, len(m.constraints))
	for i, c := range m.constraints {
		out[i] = Constraint{Coefficients: slices.Clone(c.Coefficients), Operator: c.Operator, FreeTerm: c.FreeTerm}
	}
	return out
}

// CostFunction returns the cost function, if one was added.
func (m *Model) CostFunction() (CostFunction, bool) {
	if m.cost == nil {
		return CostFunction{}, false
	}
	c := *m.cost
	c.Coefficients = slices.Clone(c.Coefficients)
	return c, true
}

// AddConstraint adds a constraint with one coefficient per variable.
func (m *Model) AddConstraint(coefficients []float64, operator Operator, freeTerm float64) error {
	const op = "AddConstraint"
	if len(coefficients) != len(m.variables) {
		return simplex.NewError(op, simplex.ErrInvalidInput,
			"coefficients length %d must match the number of variables %d", len(coefficients), len(m.variables))
	}
	if !operator.valid() {
		return simplex.NewError(op, simplex.ErrInvalidInput, "operator %q not valid", operator)
	}

	m.constraints = append(m.constraints, Constraint{
		Coefficients: slices.Clone(coefficients),
		Operator:     operator,
		FreeTerm:     freeTerm,
	})
	return nil
}

// AddConstraintNamed adds a constraint whose coefficients are given by
// variable name. Missing variables have coefficient 0.
func (m *Model) AddConstraintNamed(coefficients map[string]float64, operator Operator, freeTerm float64) error {
	vec, err := m.resolve("AddConstraintNamed", coefficients)
	if err != nil {
		return err
	}
	return m.AddConstraint(vec, operator, freeTerm)
}

// AddCostFunction sets the cost function, replacing any previous one.
func (m *Model) AddCostFunction(direction Direction, coefficients []float64, freeTerm float64) error {
	const op = "AddCostFunction"
	if !direction.valid() {
		return simplex.NewError(op, simplex.ErrInvalidInput, "direction %q not valid", direction)
	}
	if len(coefficients) != len(m.variables) {
		return simplex.NewError(op, simplex.ErrInvalidInput,
			"coefficients length %d must match the number of variables %d", len(coefficients), len(m.variables))
	}

	m.cost = &CostFunction{
		Direction:    direction,
		Coefficients: slices.Clone(coefficients),
		FreeTerm:     freeTerm,
	}
	return nil
}

// AddCostFunctionNamed sets the cost function from coefficients given by
// variable name. Missing variables have coefficient 0.
func (m *Model) AddCostFunctionNamed(direction Direction, coefficients map[string]float64, freeTerm float64) error {
	vec, err := m.resolve("AddCostFunctionNamed", coefficients)
	if err != nil {
		return err
	}
	return m.AddCostFunction(direction, vec, freeTerm)
}

func (m *Model) resolve(op string, coefficients map[string]float64) ([]float64, error) {
	vec := make([]float64, len(m.variables))
	for name, c := range coefficients {
		i, ok := m.index[name]
		if !ok {
			return nil, simplex.NewError(op, simplex.ErrInvalidInput, "unknown variable %q", name)
		}
		vec[i] = c
	}
	return vec, nil
}

// Solution is the optimum found by Solve.
type Solution struct {
	// Values maps every variable to its value. Non basic variables are 0.
	Values map[string]float64
	// Objective is the value of the cost function at Values, in the
	// direction the cost function was declared with.
	Objective float64
}

// Simplex solves the model and returns the value of every variable.
func (m *Model) Simplex() (map[string]float64, error) {
	sol, err := m.Solve()
	if err != nil {
		return nil, err
	}
	return sol.Values, nil
}

// Solve runs both phases of the simplex method. The model is not modified,
// so calling Solve again gives the same result.
func (m *Model) Solve() (*Solution, error) {
	if m.cost == nil {
		return nil, simplex.NewError("Solve", simplex.ErrStructure, "cost function not registered")
	}

	canonical := m.convertToStandardForm().convertToCanonicalForm()
	t, err := canonical.buildTableau(m.opts...)
	if err != nil {
		return nil, err
	}

	m.log.Debug("simplex phase 1", "variables", len(m.variables), "constraints", len(m.constraints))
	if err := t.Simplex(); err != nil {
		return nil, fmt.Errorf("phase 1: %w", err)
	}
	if err := t.DriveOutArtificial(); err != nil {
		return nil, fmt.Errorf("phase 1: %w", err)
	}
	if err := t.DropArtificial(); err != nil {
		return nil, fmt.Errorf("phase 1: %w", err)
	}

	m.log.Debug("simplex phase 2", "tableau", t)
	if err := t.Simplex(); err != nil {
		return nil, fmt.Errorf("phase 2: %w", err)
	}

	x := t.Solution()
	values := make(map[string]float64, len(m.variables))
	for i, name := range m.variables {
		values[name] = x[i]
	}

	n, _ := t.Dims()
	// The cost row free term holds -w at the optimum, where w is the
	// minimized form of the cost function.
	objective := -m.cost.Direction.sign() * t.CostFunction()[n]

	evaluated := floats.Dot(m.cost.Coefficients, x[:len(m.variables)]) + m.cost.FreeTerm
	if !consistent(objective, evaluated) {
		m.log.Warn("simplex result is inconsistent", "objective", objective, "evaluated", evaluated)
		return nil, simplex.NewError("Solve", simplex.ErrNumeric,
			"tableau objective %v differs from the cost function at the solution %v", objective, evaluated)
	}

	m.log.Debug("simplex solved", "objective", objective)
	return &Solution{Values: values, Objective: objective}, nil
}

// consistent reports whether the tableau objective a matches the evaluated
// cost function b.
func consistent(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false
	}
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= relTolerance*scale
}
