package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/propscan/scheduler/app"
	"github.com/propscan/scheduler/config"
)

var (
	suggestTerritory string
	suggestStart     string
	suggestDuration  int
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Rank technicians for a proposed booking",
	RunE:  runSuggest,
}

func init() {
	suggestCmd.Flags().StringVar(&suggestTerritory, "territory", "", "job territory")
	suggestCmd.Flags().StringVar(&suggestStart, "start", "", "proposed start (RFC3339)")
	suggestCmd.Flags().IntVar(&suggestDuration, "duration", 120, "duration in minutes")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	start, err := time.Parse(time.RFC3339, suggestStart)
	if err != nil {
		return fmt.Errorf("parse start: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	sug, err := svc.Assigner.Suggest(ctx, suggestTerritory, start, suggestDuration, "")
	if err != nil {
		return err
	}
	for i, cand := range sug.Ranked {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Printf("%s %-12s score=%6.1f  %s\n", marker, cand.Technician.ID, cand.Score, strings.Join(cand.Reasoning, "; "))
	}
	return nil
}
