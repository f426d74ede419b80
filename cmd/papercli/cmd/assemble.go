package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
)

var errNoItems = errors.New("no items available")

func newAssembleCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "assemble",
		Short: "Assemble a paper and print the result as JSON",
		RunE:  runAssemble,
	}
	c.Flags().String("bank", "", "Item bank file (.json or .csv)")
	c.Flags().String("config", "", "Paper config file (.yaml or .json)")
	c.Flags().Uint64("seed", 0, "RNG seed; random when unset")
	c.Flags().Int("oversample", assembly.DefaultOversample, "Candidate pool multiplier")
	c.Flags().Int("emergency-limit", assembly.DefaultEmergencyLimit, "Maximum items returned by the emergency fallback")
	_ = c.MarkFlagRequired("bank")
	_ = c.MarkFlagRequired("config")
	return c
}

func runAssemble(cmd *cobra.Command, _ []string) error {
	bankPath, _ := cmd.Flags().GetString("bank")
	cfgPath, _ := cmd.Flags().GetString("config")
	oversample, _ := cmd.Flags().GetInt("oversample")
	limit, _ := cmd.Flags().GetInt("emergency-limit")

	items, err := loadBank(bankPath)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	opts := []assembly.Option{assembly.WithOversample(oversample), assembly.WithEmergencyLimit(limit)}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		opts = append(opts, assembly.WithSeed(seed))
	}
	res := assembly.NewEngine(opts...).Assemble(items, cfg)
	if err := printJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%w: requested %d, found 0", errNoItems, cfg.TotalItems)
	}
	return nil
}
