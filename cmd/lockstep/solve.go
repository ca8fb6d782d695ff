package main

import (
	"github.com/aretw0/lockstep/internal/cli"
	"github.com/aretw0/lockstep/pkg/report"
	"github.com/spf13/cobra"
)

var solveCmd = &cobra.Command{
	Use:   "solve [file]",
	Short: "Answer the single-goal and multi-goal questions for a puzzle text",
	Long: `Reads the puzzle text from file (or stdin when omitted or "-") and prints
the single-goal step count and the synchronization step of every start token.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		modeFlag, _ := cmd.Flags().GetString("mode")
		mode, err := report.ParseMode(modeFlag)
		if err != nil {
			return err
		}
		outFlag, _ := cmd.Flags().GetString("output")
		out, err := cli.ParseOutput(outFlag)
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

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		svc, closeFn, err := cli.CreateService(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		return cli.HandleExecutionError(cli.RunSolve(ctx, cmd.OutOrStdout(), svc, input, mode, out))
	},
}

func init() {
	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringP("mode", "m", "both", "Questions to answer: single, multi or both")
	solveCmd.Flags().StringP("output", "o", "auto", "Output format: auto, plain, json or pretty")
}
