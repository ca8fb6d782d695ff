package main

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/aretw0/lockstep/internal/cli"
	"github.com/aretw0/lockstep/internal/compiler"
	"github.com/aretw0/lockstep/internal/validator"
	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a puzzle text for malformed records and dead links",
	Long: `Parses the puzzle text and crawls the network from the single-goal start and
every start token, reporting successors that are not defined.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		input, err := cli.ReadInput(path, cmd.InOrStdin())
		if err != nil {
			return err
		}

		doc, err := compiler.NewParser().Parse(bytes.NewReader(input))
		if err != nil {
			return err
		}
		g, err := doc.Network()
		if err != nil {
			return err
		}

		starts := g.Select(domain.HasSuffix(cfg.Multi.StartSuffix))
		if single := domain.NodeID(cfg.Single.Start); g.Has(single) && !slices.Contains(starts, single) {
			starts = append(starts, single)
		}

		res, err := validator.ValidateNetwork(g, starts)
		out := cmd.OutOrStdout()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ %d nodes, %d instructions, %d reachable from %d starts\n",
			g.Len(), doc.Instructions.Len(), len(res.Reachable), len(starts))
		if len(res.Unreachable) > 0 {
			fmt.Fprintf(out, "  %d unreachable nodes\n", len(res.Unreachable))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
