package pplan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"q.log/pplan/simplex"
)

const delta = 1e-6

func size(v float64) *float64 { return &v }

func TestVariable(t *testing.T) {
	assert.Equal(t, "home_size", Variable("home", "size"))
	assert.Equal(t, "home_to_min_size", Variable("home", "to_min_size"))
}

func TestPlanner_PlanSinglePartition(t *testing.T) {
	p := New(DefaultPenalization())

	proposal, err := p.Plan(50000, []Constraint{{Name: "root", Min: size(5000), Max: size(20000)}})
	require.NoError(t, err)

	// Growing past the maximum costs more than the free space it saves.
	assert.InDelta(t, 20000, proposal.Sizes["root"], delta)
	assert.InDelta(t, 30000, proposal.Free, delta)
	assert.InDelta(t, 30000, proposal.Objective, delta)
	assert.InDelta(t, 0, proposal.Variables["root_to_min_size"], delta)
	assert.InDelta(t, 0, proposal.Variables["root_from_max_size"], delta)
}

func TestPlanner_PlanUnconstrainedPartition(t *testing.T) {
	p := New(DefaultPenalization())

	proposal, err := p.Plan(50000, []Constraint{{Name: "swap"}})
	require.NoError(t, err)
	assert.InDelta(t, 50000, proposal.Sizes["swap"], delta)
	assert.InDelta(t, 0, proposal.Free, delta)
	assert.InDelta(t, 0, proposal.Objective, delta)
}

func TestPlanner_PlanRespectsBounds(t *testing.T) {
	p := New(DefaultPenalization())
	constraints := []Constraint{
		{Name: "root", Min: size(5000), Max: size(20000)},
		{Name: "home", Min: size(10000)},
		{Name: "swap", Min: size(1000), Max: size(2000)},
	}

	proposal, err := p.Plan(50000, constraints)
	require.NoError(t, err)

	total := 0.0
	for _, c := range constraints {
		s := proposal.Sizes[c.Name]
		total += s
		if c.Min != nil {
			assert.GreaterOrEqual(t, s, *c.Min-delta, c.Name)
		}
		if c.Max != nil {
			assert.LessOrEqual(t, s, *c.Max+delta, c.Name)
		}
		assert.InDelta(t, 0, proposal.Variables[Variable(c.Name, "to_min_size")], delta)
		assert.InDelta(t, 0, proposal.Variables[Variable(c.Name, "from_max_size")], delta)
	}
	assert.LessOrEqual(t, total, 50000+delta)
	assert.InDelta(t, 0, proposal.Free, delta)
	assert.InDelta(t, 0, proposal.Objective, delta)
	assert.Len(t, proposal.Variables, 9)
}

func TestPlanner_PlanDiskTooSmall(t *testing.T) {
	p := New(DefaultPenalization())

	proposal, err := p.Plan(10000, []Constraint{
		{Name: "root", Min: size(5000), Max: size(20000)},
		{Name: "home", Min: size(8000)},
	})
	require.NoError(t, err)

	// 3000 units are missing, whatever partition takes the shortfall.
	assert.InDelta(t, 10000, proposal.Sizes["root"]+proposal.Sizes["home"], delta)
	assert.InDelta(t, 3000, proposal.Variables["root_to_min_size"]+proposal.Variables["home_to_min_size"], delta)
	assert.InDelta(t, 0, proposal.Free, delta)
	assert.InDelta(t, 15000, proposal.Objective, delta)
}

func TestPlanner_PlanCurrentSize(t *testing.T) {
	p := New(DefaultPenalization())

	proposal, err := p.Plan(50000, []Constraint{
		{Name: "root", Min: size(5000), Max: size(20000)},
		{Name: "home", Min: size(10000), Current: size(15000)},
	})
	require.NoError(t, err)

	assert.InDelta(t, 20000, proposal.Sizes["root"], delta)
	assert.InDelta(t, 15000, proposal.Sizes["home"], delta)
	assert.InDelta(t, 0, proposal.Variables["home_increment"], delta)
	assert.InDelta(t, 0, proposal.Variables["home_decrement"], delta)
	assert.InDelta(t, 15000, proposal.Objective, delta)
	assert.Len(t, proposal.Variables, 8)
}

func TestPlanner_PlanCheapIncrement(t *testing.T) {
	pen := DefaultPenalization()
	pen.Partitions["home"][Increment] = 0.5

	proposal, err := New(pen).Plan(50000, []Constraint{
		{Name: "root", Min: size(5000), Max: size(20000)},
		{Name: "home", Min: size(10000), Current: size(15000)},
	})
	require.NoError(t, err)

	// Growing home is now cheaper than leaving the space free.
	assert.InDelta(t, 20000, proposal.Sizes["root"], delta)
	assert.InDelta(t, 30000, proposal.Sizes["home"], delta)
	assert.InDelta(t, 15000, proposal.Variables["home_increment"], delta)
	assert.InDelta(t, 7500, proposal.Objective, delta)
}

func TestPlanner_PlanInvalid(t *testing.T) {
	tests := []struct {
		name        string
		disk        float64
		constraints []Constraint
	}{
		{name: "no partitions", disk: 1000},
		{name: "zero disk", disk: 0, constraints: []Constraint{{Name: "root"}}},
		{name: "negative disk", disk: -1, constraints: []Constraint{{Name: "root"}}},
		{name: "no name", disk: 1000, constraints: []Constraint{{}}},
		{name: "duplicated", disk: 1000, constraints: []Constraint{{Name: "root"}, {Name: "root"}}},
		{name: "negative minimum", disk: 1000, constraints: []Constraint{{Name: "root", Min: size(-1)}}},
		{name: "negative current", disk: 1000, constraints: []Constraint{{Name: "root", Current: size(-5)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(DefaultPenalization()).Plan(tt.disk, tt.constraints)
			assert.ErrorIs(t, err, simplex.ErrInvalidInput)
		})
	}
}

func TestPlanner_PlanIterationLimit(t *testing.T) {
	p := New(DefaultPenalization(), simplex.WithMaxIterations(1))

	_, err := p.Plan(50000, []Constraint{{Name: "root", Min: size(5000), Max: size(20000)}})
	assert.ErrorIs(t, err, simplex.ErrIterationLimit)
	assert.NotErrorIs(t, err, ErrNoLayout)
}

func TestClassify(t *testing.T) {
	infeasible := fmt.Errorf("phase 1: %w", simplex.NewError("DropArtificial", simplex.ErrInfeasible, "x"))
	err := classify(infeasible)
	assert.ErrorIs(t, err, ErrNoLayout)
	assert.ErrorIs(t, err, simplex.ErrInfeasible)

	unbounded := simplex.NewError("Simplex", simplex.ErrUnbounded, "x")
	assert.ErrorIs(t, classify(unbounded), ErrNoLayout)

	structure := simplex.NewError("Simplex", simplex.ErrStructure, "x")
	err = classify(structure)
	assert.NotErrorIs(t, err, ErrNoLayout)
	assert.ErrorIs(t, err, simplex.ErrStructure)
}
