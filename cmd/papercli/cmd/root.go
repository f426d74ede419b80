package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-assembly/internal/platform/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "papercli",
		Short:         "Assemble exam papers from an item bank",
		Long:          "papercli runs the paper assembly engine against item bank files or loads banks into a database.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("log-mode", "dev", "Logger mode: dev or prod")

	root.AddCommand(newAssembleCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newImportCmd())
	return root
}

func Execute() error {
	return newRootCmd().Execute()
}

// cmdLogger builds the logger for --log-mode. Logs go to stderr so stdout
// stays machine readable.
func cmdLogger(cmd *cobra.Command) (*logger.Logger, error) {
	mode, _ := cmd.Flags().GetString("log-mode")
	return logger.New(mode)
}
