package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smithrashell/CodeMaster-sub000/internal/decay"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
	"github.com/smithrashell/CodeMaster-sub000/internal/ui/theme"
)

var diagnosticApply bool

var diagnosticCmd = &cobra.Command{
	Use:   "diagnostic",
	Short: "Assess decayed problems and recalibrate the schedule",
	Long: "Builds a short assessment session from problems flagged after a long\n" +
		"break. Record attempts as usual, then run with --apply to fold the\n" +
		"results back into the schedule.",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()
		ctx := cmd.Context()

		if diagnosticApply {
			sess, err := eng.store.Sessions().Active(ctx, store.SessionTypeDiagnostic)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return errors.New("no active diagnostic session to apply")
				}
				return fmt.Errorf("find diagnostic session: %w", err)
			}
			res, err := eng.sessions.Complete(ctx, sess.SessionID)
			if err != nil {
				return err
			}
			fmt.Printf("Diagnostic applied: %d/%d correct.\n", res.Correct, res.Attempts)
			printDiagnosticOutcome(res.Diagnostic)
			return nil
		}

		sess, err := eng.sessions.GetOrCreate(ctx, store.SessionTypeDiagnostic)
		if err != nil {
			return err
		}
		return printSession(ctx, eng, sess)
	},
}

func printDiagnosticOutcome(out *decay.DiagnosticOutcome) {
	if out == nil {
		return
	}
	if len(out.RetainedTags) > 0 {
		fmt.Println(theme.Correct.Render("Still solid: ") + strings.Join(out.RetainedTags, ", "))
	}
	if len(out.ForgottenTags) > 0 {
		fmt.Println(theme.Incorrect.Render("Needs work: ") + strings.Join(out.ForgottenTags, ", "))
	}
	if out.Demoted > 0 {
		fmt.Printf("%d problems moved to earlier review.\n", out.Demoted)
	}
}

func init() {
	diagnosticCmd.Flags().BoolVar(&diagnosticApply, "apply", false, "Complete the diagnostic session and apply its results")
}
