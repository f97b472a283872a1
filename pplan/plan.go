// Package pplan proposes a partition layout for a disk.
//
// Every partition gets a size between its minimum and maximum recommended
// sizes when the disk allows it. The layout is the optimum of a linear
// program that penalizes unallocated space and every unit a partition
// deviates from its recommendations, weighted by a Penalization.
package pplan

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"q.log/pplan/model"
	"q.log/pplan/simplex"
)

// ErrNoLayout is returned when no partition layout satisfies the
// constraints.
var ErrNoLayout = errors.New("pplan: no feasible partition layout")

const (
	sizeSuffix      = "size"
	toMinSuffix     = "to_min_size"
	fromMaxSuffix   = "from_max_size"
	incrementSuffix = "increment"
	decrementSuffix = "decrement"
)

// Constraint is the request for a single partition. Nil sizes are not
// constrained: a missing minimum is 0 and a missing maximum is the disk
// size.
type Constraint struct {
	Name string
	Min  *float64
	Max  *float64
	// Current is the size of an existing partition. Moving away from it
	// is penalized by the increment and decrement weights.
	Current *float64
}

// Variable returns the name of a model variable of a partition.
func Variable(partition, suffix string) string {
	return partition + "_" + suffix
}

// Proposal is a partition layout.
type Proposal struct {
	// Sizes maps every partition to its proposed size.
	Sizes map[string]float64 `json:"sizes" yaml:"sizes"`
	// Free is the disk space left unallocated.
	Free float64 `json:"free" yaml:"free"`
	// Objective is the total penalty of the layout.
	Objective float64 `json:"objective" yaml:"objective"`
	// Variables holds the value of every model variable.
	Variables map[string]float64 `json:"variables" yaml:"variables"`
}

// Planner builds and solves partition models.
type Planner struct {
	penalization Penalization
	opts         []simplex.Option
	log          *slog.Logger
}

// New returns a planner using the given weights. The options are passed to
// the solver.
func New(penalization Penalization, opts ...simplex.Option) *Planner {
	return &Planner{
		penalization: penalization,
		opts:         opts,
		log:          simplex.NewOptions(opts...).Logger,
	}
}

// Plan proposes a layout for the partitions on a disk of the given size.
// Sizes use whatever unit diskSize is expressed in.
func (p *Planner) Plan(diskSize float64, constraints []Constraint) (*Proposal, error) {
	if err := validate(diskSize, constraints); err != nil {
		return nil, err
	}

	m, err := p.buildModel(diskSize, constraints)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}

	p.log.Debug("solving partition model",
		"partitions", len(constraints), "variables", len(m.Variables()), "constraints", len(m.Constraints()))
	sol, err := m.Solve()
	if err != nil {
		return nil, classify(err)
	}

	proposal := &Proposal{
		Sizes:     make(map[string]float64, len(constraints)),
		Free:      diskSize,
		Objective: sol.Objective,
		Variables: sol.Values,
	}
	for _, c := range constraints {
		size := sol.Values[Variable(c.Name, sizeSuffix)]
		proposal.Sizes[c.Name] = size
		proposal.Free -= size
	}

	p.log.Info("partition proposal", "sizes", proposal.Sizes, "free", proposal.Free, "penalty", proposal.Objective)
	return proposal, nil
}

// buildModel encodes, for every partition p,
//
//	p_size + p_to_min_size   >= min
//	p_size - p_from_max_size <= max
//	p_size - p_increment + p_decrement = current    (existing partitions)
//
// the budget sum(p_size) <= disk, and the objective
//
//	minimize free*(disk - sum(p_size)) + sum(weight * penalty variable)
func (p *Planner) buildModel(diskSize float64, constraints []Constraint) (*model.Model, error) {
	var variables []string
	for _, c := range constraints {
		variables = append(variables,
			Variable(c.Name, sizeSuffix), Variable(c.Name, toMinSuffix), Variable(c.Name, fromMaxSuffix))
		if c.Current != nil {
			variables = append(variables, Variable(c.Name, incrementSuffix), Variable(c.Name, decrementSuffix))
		}
	}

	m, err := model.NewModel(variables, p.opts...)
	if err != nil {
		return nil, err
	}

	budget := make(map[string]float64, len(constraints))
	cost := make(map[string]float64, len(variables))
	for _, c := range constraints {
		size := Variable(c.Name, sizeSuffix)
		toMin := Variable(c.Name, toMinSuffix)
		fromMax := Variable(c.Name, fromMaxSuffix)

		lower := 0.0
		if c.Min != nil {
			lower = *c.Min
		}
		upper := diskSize
		if c.Max != nil {
			upper = *c.Max
		}

		if err := m.AddConstraintNamed(map[string]float64{size: 1, toMin: 1}, model.GTE, lower); err != nil {
			return nil, err
		}
		if err := m.AddConstraintNamed(map[string]float64{size: 1, fromMax: -1}, model.LTE, upper); err != nil {
			return nil, err
		}

		budget[size] = 1
		cost[size] = -p.penalization.Free
		cost[toMin] = p.penalization.Weight(c.Name, Minimum)
		cost[fromMax] = p.penalization.Weight(c.Name, Maximum)

		if c.Current != nil {
			inc := Variable(c.Name, incrementSuffix)
			dec := Variable(c.Name, decrementSuffix)
			if err := m.AddConstraintNamed(map[string]float64{size: 1, inc: -1, dec: 1}, model.EQ, *c.Current); err != nil {
				return nil, err
			}
			cost[inc] = p.penalization.Weight(c.Name, Increment)
			cost[dec] = p.penalization.Weight(c.Name, Decrement)
		}
	}

	if err := m.AddConstraintNamed(budget, model.LTE, diskSize); err != nil {
		return nil, err
	}
	if err := m.AddCostFunctionNamed(model.Minimize, cost, p.penalization.Free*diskSize); err != nil {
		return nil, err
	}
	return m, nil
}

func validate(diskSize float64, constraints []Constraint) error {
	const op = "Plan"
	if !(diskSize > 0) || math.IsInf(diskSize, 0) {
		return simplex.NewError(op, simplex.ErrInvalidInput, "disk size %v must be positive", diskSize)
	}
	if len(constraints) == 0 {
		return simplex.NewError(op, simplex.ErrInvalidInput, "at least one partition is required")
	}

	seen := make(map[string]bool, len(constraints))
	for _, c := range constraints {
		if c.Name == "" {
			return simplex.NewError(op, simplex.ErrInvalidInput, "partition without name")
		}
		if seen[c.Name] {
			return simplex.NewError(op, simplex.ErrInvalidInput, "duplicated partition %q", c.Name)
		}
		seen[c.Name] = true

		for _, v := range []*float64{c.Min, c.Max, c.Current} {
			if v != nil && (*v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0)) {
				return simplex.NewError(op, simplex.ErrInvalidInput, "partition %q: sizes must be finite and not negative", c.Name)
			}
		}
	}
	return nil
}

// classify tells a problem without solution apart from a failure of the
// solver itself.
func classify(err error) error {
	if errors.Is(err, simplex.ErrInfeasible) || errors.Is(err, simplex.ErrUnbounded) {
		return fmt.Errorf("%w: %w", ErrNoLayout, err)
	}
	return fmt.Errorf("solve partition model: %w", err)
}
