package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write a full backup of your data as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()
		ctx := cmd.Context()

		if len(args) == 0 {
			_, err := eng.backup.Export(ctx, os.Stdout)
			return err
		}

		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create backup file: %w", err)
		}
		payload, err := eng.backup.Export(ctx, f)
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close backup file: %w", cerr)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d problems, %d attempts, %d sessions to %s.\n",
			len(payload.Problems), len(payload.Attempts), len(payload.Sessions), args[0])
		return nil
	},
}
