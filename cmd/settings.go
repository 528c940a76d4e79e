package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smithrashell/CodeMaster-sub000/internal/catalog"
	"github.com/smithrashell/CodeMaster-sub000/internal/settings"
	"github.com/smithrashell/CodeMaster-sub000/internal/ui/layout"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View or change preferences",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print current preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()
		ctx := cmd.Context()

		focus := "(weakest tags)"
		if areas := eng.settings.FocusAreas(ctx); len(areas) > 0 {
			focus = strings.Join(areas, ", ")
		}
		fmt.Println(layout.Rows([]layout.Row{
			{Label: "Focus areas", Value: focus},
			{Label: "Difficulty mode", Value: eng.settings.DifficultyLimitMode(ctx)},
		}))
		return nil
	},
}

var (
	settingsFocus string
	settingsMode  string
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("focus") && !cmd.Flags().Changed("mode") {
			return errors.New("nothing to set; pass --focus and/or --mode")
		}

		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()
		ctx := cmd.Context()

		if cmd.Flags().Changed("focus") {
			var tags []string
			for _, raw := range strings.Split(settingsFocus, ",") {
				if tag := catalog.NormalizeTag(raw); tag != "" {
					tags = append(tags, tag)
				}
			}
			if err := eng.settings.SetFocusAreas(ctx, tags); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("mode") {
			switch settingsMode {
			case settings.ModeAdaptive, settings.ModeUnrestricted:
			default:
				return fmt.Errorf("unknown difficulty mode %q (want adaptive or unrestricted)", settingsMode)
			}
			if err := eng.settings.SetDifficultyLimitMode(ctx, settingsMode); err != nil {
				return err
			}
		}
		fmt.Println("Settings updated.")
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&settingsFocus, "focus", "", "Comma-separated focus tags; empty clears them")
	settingsSetCmd.Flags().StringVar(&settingsMode, "mode", "", "Difficulty mode: adaptive or unrestricted")

	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}
