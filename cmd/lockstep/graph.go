package main

import (
	"fmt"

	"github.com/aretw0/lockstep/internal/cli"
	lshttp "github.com/aretw0/lockstep/pkg/adapters/http"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Export the network visualization",
	Long:  `Outputs a Mermaid diagram (graph LR) of the network. With --trace, the walk of one token and the cycle it settles into are highlighted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		trace, _ := cmd.Flags().GetString("trace")

		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		input, err := cli.ReadInput(path, cmd.InOrStdin())
		if err != nil {
			return err
		}

		output, err := lshttp.RenderMermaid(cmd.Context(), input, trace, cfg.Multi.StartSuffix, cfg.Multi.GoalSuffix, cfg.MaxSteps)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("trace", "", "Node whose walk is highlighted")
}
