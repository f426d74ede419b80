package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
)

func newCheckCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "check",
		Short: "Report whether a bank can satisfy a config without fallbacks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bankPath, _ := cmd.Flags().GetString("bank")
			cfgPath, _ := cmd.Flags().GetString("config")
			items, err := loadBank(bankPath)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), assembly.CheckFeasibility(items, cfg))
		},
	}
	c.Flags().String("bank", "", "Item bank file (.json or .csv)")
	c.Flags().String("config", "", "Paper config file (.yaml or .json)")
	_ = c.MarkFlagRequired("bank")
	_ = c.MarkFlagRequired("config")
	return c
}
