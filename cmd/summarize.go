package cmd

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/remd-sim/remd-sim/remd/store"
)

var (
	summarizeDB  string // SQLite acceptance log path
	summarizeRun string // Run ID to summarize ("" = latest)
)

// summarizeCmd reads a persisted acceptance log and prints aggregate rates.
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a persisted acceptance log",
	Run: func(cmd *cobra.Command, args []string) {
		if summarizeDB == "" {
			logrus.Fatalf("No acceptance log database provided (--db).")
		}
		st, err := store.OpenReadOnly(summarizeDB)
		if err != nil {
			logrus.Fatalf("unable to open store %s: %v", summarizeDB, err)
		}
		defer st.Close()

		runID := summarizeRun
		if runID == "" {
			runs, err := st.ListRuns()
			if err != nil {
				logrus.Fatalf("unable to list runs: %v", err)
			}
			if len(runs) == 0 {
				logrus.Fatalf("no recorded runs in %s", summarizeDB)
			}
			runID = runs[0]
		}

		summary, err := st.SummarizeRun(runID)
		if err != nil {
			logrus.Fatalf("unable to summarize run %s: %v", runID, err)
		}

		fmt.Printf("=== Run %s ===\n", summary.RunID)
		fmt.Printf("Swap Attempts        : %d\n", summary.SwapAttempts)
		if summary.SwapAttempts > 0 {
			fmt.Printf("Swap Acceptance      : %.2f%%\n", 100*float64(summary.SwapAccepts)/float64(summary.SwapAttempts))
			fmt.Printf("Mean Swap dE         : %.4f\n", summary.MeanSwapDeltaE)
		}
		fmt.Printf("Exchange Attempts    : %d\n", summary.ExchangeAttempts)
		if summary.ExchangeAttempts > 0 {
			fmt.Printf("Exchange Acceptance  : %.2f%%\n", 100*float64(summary.ExchangeAccepts)/float64(summary.ExchangeAttempts))
			fmt.Printf("Mean Exchange p      : %.4f\n", summary.MeanExchangeProb)
		}
		ranks := make([]int, 0, len(summary.ExchangesByLowRank))
		for r := range summary.ExchangesByLowRank {
			ranks = append(ranks, r)
		}
		sort.Ints(ranks)
		for _, r := range ranks {
			fmt.Printf("  pair (%d, %d)         : %d attempts\n", r, r+1, summary.ExchangesByLowRank[r])
		}
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeDB, "db", "", "SQLite acceptance log path")
	summarizeCmd.Flags().StringVar(&summarizeRun, "run", "", "Run ID (default: most recent)")

	rootCmd.AddCommand(summarizeCmd)
}
