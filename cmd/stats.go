package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smithrashell/CodeMaster-sub000/internal/spacedrep"
	"github.com/smithrashell/CodeMaster-sub000/internal/store"
	"github.com/smithrashell/CodeMaster-sub000/internal/ui/components"
	"github.com/smithrashell/CodeMaster-sub000/internal/ui/layout"
	"github.com/smithrashell/CodeMaster-sub000/internal/ui/theme"
)

// statsMaxBars caps the per-tag strength list so the report stays one
// screen tall.
const statsMaxBars = 12

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show mastery, review backlog, and difficulty progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()
		return printStats(cmd.Context(), eng)
	},
}

func printStats(ctx context.Context, eng *engine) error {
	const width = layout.DefaultWidth
	now := time.Now()

	problems, err := eng.store.Problems().GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load problems: %w", err)
	}
	if len(problems) == 0 {
		fmt.Println(`No problems yet — run "codemaster seed" to load the catalog.`)
		return nil
	}

	var attempted, due, overdue, graduated, flagged int
	for _, p := range problems {
		if p.LastAttemptDate != nil {
			attempted++
		}
		if p.NeedsRecalibration {
			flagged++
		}
		switch spacedrep.Status(p.BoxLevel, p.LastAttemptDate, now) {
		case spacedrep.ReviewDue:
			due++
		case spacedrep.ReviewOverdue:
			overdue++
		case spacedrep.ReviewGraduated:
			graduated++
		}
	}

	// Display reads degrade: a failed section logs and drops out of the
	// report instead of killing it.
	var d *store.DifficultyState
	if d, err = eng.store.DifficultyState().Get(ctx); err != nil {
		eng.log.Warn("load difficulty state", "error", err)
		d = nil
	}
	masteries, err := eng.store.TagMastery().GetAll(ctx)
	if err != nil {
		eng.log.Warn("load tag mastery", "error", err)
		masteries = nil
	}

	capName := "?"
	if d != nil {
		capName = d.CurrentDifficultyCap
	}
	var b strings.Builder
	b.WriteString(layout.Header("CodeMaster",
		fmt.Sprintf("cap %s · %d due", capName, due+overdue), width))
	b.WriteString("\n\n")

	b.WriteString(layout.Section("Review queue", width))
	b.WriteString("\n")
	rows := []layout.Row{
		{Label: "Problems", Value: fmt.Sprintf("%d in the bank, %d attempted", len(problems), attempted)},
		{Label: "Due now", Value: theme.Due.Render(fmt.Sprintf("%d", due))},
		{Label: "Overdue", Value: theme.Incorrect.Render(fmt.Sprintf("%d", overdue))},
		{Label: "Graduated", Value: fmt.Sprintf("%d", graduated)},
	}
	if flagged > 0 {
		rows = append(rows, layout.Row{
			Label: "Reassess",
			Value: fmt.Sprintf("%d flagged — run \"codemaster diagnostic\"", flagged),
		})
	}
	b.WriteString(layout.Rows(rows))
	b.WriteString("\n\n")

	if len(masteries) > 0 {
		b.WriteString(layout.Section("Concept mastery", width))
		b.WriteString("\n")
		b.WriteString(strengthBars(masteries, width))
		b.WriteString("\n\n")
	}

	if d != nil {
		b.WriteString(layout.Section("Difficulty", width))
		b.WriteString("\n")
		b.WriteString(difficultyRows(d))
		b.WriteString("\n")
	}

	fmt.Print(b.String())
	return nil
}

// strengthBars renders per-tag strength, weakest first, mastered tags
// starred.
func strengthBars(masteries []*store.TagMastery, width int) string {
	sort.Slice(masteries, func(i, j int) bool {
		if masteries[i].Strength != masteries[j].Strength {
			return masteries[i].Strength < masteries[j].Strength
		}
		return masteries[i].Tag < masteries[j].Tag
	})
	if len(masteries) > statsMaxBars {
		masteries = masteries[:statsMaxBars]
	}

	labelWidth := 0
	for _, m := range masteries {
		if len(m.Tag) > labelWidth {
			labelWidth = len(m.Tag)
		}
	}

	var b strings.Builder
	for i, m := range masteries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(" ")
		b.WriteString(components.StrengthBar(m.Tag, m.Strength, labelWidth, width-6))
		if m.Mastered {
			b.WriteString(" " + theme.Mastered.Render("★"))
		}
	}
	return b.String()
}

func difficultyRows(d *store.DifficultyState) string {
	rows := []layout.Row{
		{Label: "Current cap", Value: theme.Difficulty(d.CurrentDifficultyCap).Render(d.CurrentDifficultyCap)},
		{Label: "Sessions at cap", Value: fmt.Sprintf("%d", d.SessionsAtCurrentDifficulty)},
	}
	if d.LastDifficultyPromotion != nil {
		rows = append(rows, layout.Row{
			Label: "Last promotion",
			Value: d.LastDifficultyPromotion.Format("2006-01-02"),
		})
	}
	stats := d.TimeStats()
	for _, level := range []string{store.DifficultyEasy, store.DifficultyMedium, store.DifficultyHard} {
		ls, ok := stats[level]
		if !ok || ls.Problems == 0 {
			continue
		}
		avg := ls.TotalTime / ls.Problems
		rows = append(rows, layout.Row{
			Label: level + " solved",
			Value: fmt.Sprintf("%d (avg %dm%02ds)", ls.Problems, avg/60, avg%60),
		})
	}
	return layout.Rows(rows)
}
