package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smithrashell/CodeMaster-sub000/internal/decay"
)

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Run the daily decay check and see where you stand",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.Close()

		res, err := eng.sessions.Checkin(cmd.Context())
		if err != nil {
			return err
		}
		if !res.Ran {
			fmt.Println("Already checked in today.")
			return nil
		}

		switch res.Strategy {
		case decay.StrategyNormal:
			fmt.Println("Welcome back! Your schedule is on track.")
		case decay.StrategyGentle:
			fmt.Printf("It's been %.0f days — easing you back in. Your next session will recalibrate what slipped.\n", res.GapDays)
		case decay.StrategyModerate:
			fmt.Printf("It's been %.0f days, so some reviews moved earlier.\n", res.GapDays)
		case decay.StrategyMajor:
			fmt.Printf("Welcome back after %.0f days! Expect a fresh start on most topics.\n", res.GapDays)
		}
		if res.DecayedCount > 0 {
			fmt.Printf("%d problems drifted down the review schedule.\n", res.DecayedCount)
		}
		if res.FlaggedCount > 0 {
			fmt.Printf("%d problems need reassessment — run \"codemaster diagnostic\".\n", res.FlaggedCount)
		}
		return nil
	},
}
