package pplan

import "strings"

// Section names a penalty applied to a partition variable.
type Section string

const (
	// Minimum penalizes every unit a partition falls below its minimum
	// recommended size.
	Minimum Section = "minimum_recommendation_size"
	// Maximum penalizes every unit a partition grows beyond its maximum
	// recommended size.
	Maximum Section = "maximum_recommendation_size"
	// Decrement penalizes shrinking an existing partition.
	Decrement Section = "decrement_current_partition_size"
	// Increment penalizes growing an existing partition.
	Increment Section = "increment_current_partition_size"
)

// Sections lists every section in a stable order.
var Sections = []Section{Minimum, Maximum, Decrement, Increment}

// Weights holds one weight per section.
type Weights struct {
	Minimum   float64 `mapstructure:"minimum_recommendation_size" yaml:"minimum_recommendation_size" json:"minimum_recommendation_size" validate:"gte=0"`
	Maximum   float64 `mapstructure:"maximum_recommendation_size" yaml:"maximum_recommendation_size" json:"maximum_recommendation_size" validate:"gte=0"`
	Decrement float64 `mapstructure:"decrement_current_partition_size" yaml:"decrement_current_partition_size" json:"decrement_current_partition_size" validate:"gte=0"`
	Increment float64 `mapstructure:"increment_current_partition_size" yaml:"increment_current_partition_size" json:"increment_current_partition_size" validate:"gte=0"`
}

// Get returns the weight of a section. Unknown sections weigh 0.
func (w Weights) Get(section Section) float64 {
	switch section {
	case Minimum:
		return w.Minimum
	case Maximum:
		return w.Maximum
	case Decrement:
		return w.Decrement
	case Increment:
		return w.Increment
	}
	return 0
}

// Penalization is the set of weights of the planner objective.
type Penalization struct {
	// Free is the weight of every unit of disk left unallocated.
	Free float64 `mapstructure:"free" yaml:"free" json:"free" validate:"gte=0"`
	// Default applies to partitions without an entry in Partitions, and to
	// the sections a partition entry does not set.
	Default Weights `mapstructure:"default" yaml:"default" json:"default"`
	// Partitions overrides single sections for a partition.
	Partitions map[string]map[Section]float64 `mapstructure:"partitions" yaml:"partitions,omitempty" json:"partitions,omitempty" validate:"dive,dive,keys,oneof=minimum_recommendation_size maximum_recommendation_size decrement_current_partition_size increment_current_partition_size,endkeys,gte=0"`
}

// DefaultPenalization returns the weights used when nothing is configured.
func DefaultPenalization() Penalization {
	def := Weights{Minimum: 5, Maximum: 2, Decrement: 10, Increment: 10}
	overrides := func() map[Section]float64 {
		return map[Section]float64{
			Minimum:   def.Minimum,
			Maximum:   def.Maximum,
			Decrement: def.Decrement,
			Increment: def.Increment,
		}
	}

	return Penalization{
		Free:    1,
		Default: def,
		Partitions: map[string]map[Section]float64{
			"root": overrides(),
			"home": overrides(),
			"var":  overrides(),
		},
	}
}

// Weight returns the weight of a section for a partition, falling back to
// the default weight when the partition does not override it. Partition
// names are matched exactly first, then in lower case, since configuration
// keys are read in lower case.
func (p Penalization) Weight(partition string, section Section) float64 {
	if w, ok := p.Partitions[partition][section]; ok {
		return w
	}
	if w, ok := p.Partitions[strings.ToLower(partition)][section]; ok {
		return w
	}
	return p.Default.Get(section)
}
