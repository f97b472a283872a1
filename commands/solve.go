package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"q.log/pplan/instance"
	"q.log/pplan/simplex"
)

// defaultTolerance absorbs the rounding residue left by pivots on
// arbitrary MPS input.
const defaultTolerance = 1e-9

type solveOutput struct {
	Objective float64            `json:"objective" yaml:"objective"`
	Variables map[string]float64 `json:"variables" yaml:"variables"`
}

// Solve returns the command that solves a linear program from an MPS file.
func Solve() *cobra.Command {
	var jsonOutput bool
	var tolerance float64
	var maxIterations int

	cmd := &cobra.Command{
		Use:   "solve FILE",
		Short: "Solve a linear program read from a free MPS file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer closeLogger(cmd)
			log := loggerFrom(cmd)
			opts := []simplex.Option{
				simplex.WithTolerance(tolerance),
				simplex.WithMaxIterations(maxIterations),
				simplex.WithLogger(log),
			}

			m, err := instance.NewReader(args[0], opts...).ReadModel()
			if err != nil {
				return err
			}
			log.Info("model loaded", "file", args[0], "variables", len(m.Variables()), "constraints", len(m.Constraints()))

			sol, err := m.Solve()
			if err != nil {
				return fmt.Errorf("solve %s: %w", args[0], err)
			}
			return render(cmd.OutOrStdout(), solveOutput{Objective: sol.Objective, Variables: sol.Values}, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.Flags().Float64Var(&tolerance, "tolerance", defaultTolerance, "Treat values within this distance of zero as zero (0 for exact comparisons)")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Maximum pivots per simplex phase (0 for no limit)")

	return cmd
}

// render writes v as YAML, or as indented JSON.
func render(w io.Writer, v any, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
