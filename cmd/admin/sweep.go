package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"grievance/backend/internal/escalation"
	"grievance/backend/internal/events"
)

func sweepCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Escalate every overdue grievance once",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			if dryRun {
				overdue, err := escalation.Overdue(cmd.Context(), e.store, time.Now())
				if err != nil {
					return err
				}
				for _, g := range overdue {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s due %s\n", g.GrievanceID, g.Status, g.ExpectedResolutionAt.UTC().Format(time.RFC3339))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d grievances are overdue.\n", len(overdue))
				return nil
			}

			var pub events.Publisher = events.Nop{}
			if e.store.Redis != nil {
				pub = events.NewRedisPublisher(e.store.Redis)
			}
			rep, err := escalation.NewSweeper(e.store, pub, nil, e.logger).Run(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d, escalated %d, failed %d in %s.\n",
				rep.Scanned, rep.Escalated, rep.Failed, rep.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only count overdue grievances")
	return cmd
}
