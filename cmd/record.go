package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smithrashell/CodeMaster-sub000/internal/session"
	"github.com/smithrashell/CodeMaster-sub000/internal/ui/theme"
)

var (
	recordProblem string
	recordSuccess bool
	recordTime    int
	recordSession string
	recordSkip    bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record the outcome of a problem attempt",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()
		ctx := cmd.Context()

		sess, err := activeSession(ctx, eng, recordSession)
		if err != nil {
			return err
		}
		res, err := eng.sessions.RecordAttempt(ctx, session.AttemptInput{
			SessionID: sess.SessionID,
			ProblemID: recordProblem,
			Success:   recordSuccess,
			TimeSpent: recordTime,
			Skipped:   recordSkip,
		})
		if err != nil {
			return err
		}

		p := res.Problem
		if recordSkip {
			fmt.Printf("Skipped %s.\n", p.Title)
			return nil
		}
		mark := theme.Correct.Render("✓")
		if !recordSuccess {
			mark = theme.Incorrect.Render("✗")
		}
		fmt.Printf("%s %s — box %d, stability %.2f\n", mark, p.Title, p.BoxLevel, p.Stability)
		for _, tr := range res.Transitions {
			fmt.Println(theme.Mastered.Render(fmt.Sprintf("★ %s mastered", tr.Tag)))
		}
		return nil
	},
}

func init() {
	recordCmd.Flags().StringVar(&recordProblem, "problem", "", "Problem id to record")
	recordCmd.Flags().BoolVar(&recordSuccess, "success", false, "The attempt solved the problem")
	recordCmd.Flags().IntVar(&recordTime, "time", 0, "Time spent in seconds")
	recordCmd.Flags().StringVar(&recordSession, "session", "", "Session id (defaults to the active session)")
	recordCmd.Flags().BoolVar(&recordSkip, "skip", false, "Skip the problem instead of attempting it")
	_ = recordCmd.MarkFlagRequired("problem")
}
