package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-assembly/internal/db"
	"github.com/mind-engage/mindengage-assembly/internal/itembank"
)

func newImportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "import",
		Short: "Load an item bank file into the database for one owner",
		RunE:  runImport,
	}
	c.Flags().String("driver", "sqlite", "Database driver: sqlite or postgres")
	c.Flags().String("dsn", "", "Database DSN (driver default when empty)")
	c.Flags().String("owner", "", "Owner (user ID) the items belong to")
	c.Flags().String("bank", "", "Item bank file (.json or .csv)")
	_ = c.MarkFlagRequired("owner")
	_ = c.MarkFlagRequired("bank")
	return c
}

func runImport(cmd *cobra.Command, _ []string) error {
	driver, _ := cmd.Flags().GetString("driver")
	dsn, _ := cmd.Flags().GetString("dsn")
	owner, _ := cmd.Flags().GetString("owner")
	bankPath, _ := cmd.Flags().GetString("bank")

	log, err := cmdLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	items, err := loadBank(bankPath)
	if err != nil {
		return err
	}
	dbh, err := db.Open(cmd.Context(), db.Driver(driver), dsn)
	if err != nil {
		return err
	}
	defer dbh.Close()

	ins, upd, err := itembank.NewSQLStore(dbh).PutItems(cmd.Context(), owner, items)
	if err != nil {
		return err
	}
	log.Info("bank imported", "owner", owner, "file", bankPath, "inserted", ins, "updated", upd)
	return printJSON(cmd.OutOrStdout(), map[string]int{"inserted": ins, "updated": upd})
}
