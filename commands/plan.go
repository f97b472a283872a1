package commands

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"q.log/pplan/config"
	"q.log/pplan/pplan"
	"q.log/pplan/simplex"
)

type planOutput struct {
	Unit           string  `json:"unit" yaml:"unit"`
	DiskSize       float64 `json:"disk_size" yaml:"disk_size"`
	pplan.Proposal `yaml:",inline"`
}

// Plan returns the command that proposes a partition layout.
func Plan(flags *logFlags) *cobra.Command {
	var configPath string
	var name string
	var diskSize string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Propose partition sizes for a disk",
		Long: `Propose partition sizes for a disk.

The configuration file lists the partitions with their minimum, maximum
and current sizes, the disk size and the penalty weights. Every size is
expressed in the configured unit.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer closeLogger(cmd)
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				cfg.Name = name
			}
			if cmd.Flags().Changed("disk-size") {
				cfg.DiskSize = diskSize
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if err := setLogger(cmd, flags.config(cmd, cfg.Log)); err != nil {
				return err
			}
			log := loggerFrom(cmd)

			disk, err := cfg.Disk()
			if err != nil {
				return err
			}
			log.Info("planning partitions",
				"disk", humanize.Comma(int64(disk)), "unit", cfg.Unit, "partitions", len(cfg.Partitions))

			opts := append(cfg.SolverOptions(), simplex.WithLogger(log))
			proposal, err := pplan.New(cfg.Penalization, opts...).Plan(disk, cfg.Constraints())
			if err != nil {
				return err
			}

			out := map[string]planOutput{
				cfg.Name: {Unit: cfg.Unit, DiskSize: disk, Proposal: *proposal},
			}
			return render(cmd.OutOrStdout(), out, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pplan.yaml", "Path to configuration file")
	cmd.Flags().StringVar(&name, "name", "", "Name of the proposal in the output")
	cmd.Flags().StringVar(&diskSize, "disk-size", "", "Disk size, overriding the configuration (e.g. 500GB)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
