package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/smithrashell/CodeMaster-sub000/internal/catalog"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load a problem catalog (built-in starter set by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()

		var src io.Reader = catalog.Starter()
		label := "the starter catalog"
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open catalog file: %w", err)
			}
			defer f.Close()
			src = f
			label = args[0]
		}

		res, err := eng.catalog.Seed(cmd.Context(), src)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d problems and %d tag relationships from %s.\n",
			res.Problems, res.TagRelationships, label)
		return nil
	},
}
