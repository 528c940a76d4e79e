package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smithrashell/CodeMaster-sub000/internal/session"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
	"github.com/smithrashell/CodeMaster-sub000/internal/ui/layout"
	"github.com/smithrashell/CodeMaster-sub000/internal/ui/theme"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start or resume a practice session",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()
		ctx := cmd.Context()

		sess, err := eng.sessions.GetOrCreate(ctx, store.SessionTypeStandard)
		if err != nil {
			return err
		}
		return printSession(ctx, eng, sess)
	},
}

// printSession renders the session plan with attempted problems checked
// off and the suggested next problem marked.
func printSession(ctx context.Context, eng *engine, sess *store.Session) error {
	problems, err := eng.sessions.Problems(ctx, sess)
	if err != nil {
		return err
	}
	attempts, err := eng.store.Attempts().BySession(ctx, sess.SessionID)
	if err != nil {
		return fmt.Errorf("load session attempts: %w", err)
	}
	done := make(map[string]bool, len(attempts))
	for _, a := range attempts {
		done[a.ProblemID] = true
	}

	next, err := eng.sessions.NextProblem(ctx, sess)
	if err != nil && !errors.Is(err, session.ErrSessionExhausted) {
		return err
	}

	var b strings.Builder
	b.WriteString(layout.Header("CodeMaster",
		fmt.Sprintf("%s session %s", sess.SessionType, shortID(sess.SessionID)),
		layout.DefaultWidth))
	b.WriteString("\n")
	for i, p := range problems {
		mark := theme.Hint.Render("[ ]")
		if done[p.ProblemID] {
			mark = theme.Correct.Render("[x]")
		}
		line := fmt.Sprintf(" %s %2d. %-40s %s",
			mark, i+1, p.Title, theme.Difficulty(p.Difficulty).Render(p.Difficulty))
		if next != nil && p.ProblemID == next.ProblemID {
			line += theme.Due.Render("  ← next")
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	if next == nil {
		b.WriteString(theme.Hint.Render(` Every problem attempted — finish with "codemaster complete".`) + "\n")
	} else {
		b.WriteString(theme.Hint.Render(fmt.Sprintf(
			" Record with: codemaster record --problem %s --success --time 900", next.ProblemID)) + "\n")
	}
	fmt.Print(b.String())
	return nil
}
