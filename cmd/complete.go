package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smithrashell/CodeMaster-sub000/internal/ui/theme"
)

var completeSession string

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Finish a session and apply its results",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()
		ctx := cmd.Context()

		sess, err := activeSession(ctx, eng, completeSession)
		if err != nil {
			return err
		}
		res, err := eng.sessions.Complete(ctx, sess.SessionID)
		if err != nil {
			return err
		}

		fmt.Printf("Completed %s session %s: %d/%d correct (%.0f%%).\n",
			res.Session.SessionType, shortID(res.Session.SessionID),
			res.Correct, res.Attempts, res.Accuracy*100)
		if res.Promotion != nil {
			fmt.Println(theme.Mastered.Render(fmt.Sprintf(
				"▲ Difficulty cap promoted: %s → %s", res.Promotion.From, res.Promotion.To)))
		}
		printDiagnosticOutcome(res.Diagnostic)
		return nil
	},
}

func init() {
	completeCmd.Flags().StringVar(&completeSession, "session", "", "Session id (defaults to the active session)")
}
