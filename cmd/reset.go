package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all learner data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return errors.New("this erases everything; rerun with --yes to confirm")
		}

		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()
		ctx := cmd.Context()

		err = eng.store.WithTx(ctx, func(tx *store.Store) error {
			return tx.Reset(ctx)
		})
		if err != nil {
			return fmt.Errorf("reset data: %w", err)
		}
		fmt.Println(`All data erased. Run "codemaster seed" to reload the catalog.`)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm erasing everything")
}
