package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace your data with a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open backup file: %w", err)
		}
		defer f.Close()

		res, err := eng.backup.Import(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Printf("Restored %d problems, %d attempts, %d tag records, %d sessions.\n",
			res.Problems, res.Attempts, res.TagMastery, res.Sessions)
		return nil
	},
}
