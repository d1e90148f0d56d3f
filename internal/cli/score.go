package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/efilo/compliance/internal/deadline"
	"github.com/efilo/compliance/internal/notice"
	"github.com/efilo/compliance/internal/project"
	"github.com/efilo/compliance/internal/score"
	"github.com/efilo/compliance/pkg/database"
)

var (
	scorePeriod string
	allProjects bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compliance score operations",
}

var scoreRecalculateCmd = &cobra.Command{
	Use:   "recalculate [project-id]",
	Short: "Recompute the compliance score for a project (or all projects)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := newScoreService(db)

		projectIDs, err := resolveProjects(cmd, args, db)
		if err != nil {
			return err
		}

		for _, id := range projectIDs {
			s, err := svc.Calculate(ctx, id)
			if err != nil {
				return fmt.Errorf("project %s: %w", id, err)
			}
			fmt.Printf("%s: score=%d on_time=%d/%d streak=%d best=%d\n",
				id, s.Score, s.OnTimeCount, s.TotalCount, s.CurrentStreak, s.BestStreak)
		}
		return nil
	},
}

var scoreSnapshotCmd = &cobra.Command{
	Use:   "snapshot [project-id]",
	Short: "Write a score history snapshot for a project (or all projects)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if scorePeriod != score.PeriodDaily && scorePeriod != score.PeriodWeekly && scorePeriod != score.PeriodMonthly {
			return fmt.Errorf("invalid period %q (use daily, weekly, or monthly)", scorePeriod)
		}

		db, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := newScoreService(db)

		projectIDs, err := resolveProjects(cmd, args, db)
		if err != nil {
			return err
		}

		for _, id := range projectIDs {
			entry, err := svc.Snapshot(ctx, id, scorePeriod)
			if err != nil {
				return fmt.Errorf("project %s: %w", id, err)
			}
			fmt.Printf("%s: %s snapshot at %s (%s%%)\n",
				id, entry.PeriodType, entry.SnapshotDate.Format("2006-01-02"), entry.CompliancePercentage)
		}
		return nil
	},
}

func newScoreService(db *database.Pool) *score.Service {
	return score.NewService(
		db.Pool,
		score.NewRepository(db.Pool),
		notice.NewRepository(db.Pool),
		deadline.NewRepository(db.Pool),
		newLogger(),
		0, // default claims value
	)
}

// resolveProjects returns either the single project argument or, with
// --all, every project id.
func resolveProjects(cmd *cobra.Command, args []string, db *database.Pool) ([]uuid.UUID, error) {
	if allProjects {
		return project.NewRepository(db.Pool).ListIDs(cmd.Context())
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("project-id required unless --all is set")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid project id: %w", err)
	}
	return []uuid.UUID{id}, nil
}

func init() {
	scoreCmd.AddCommand(scoreRecalculateCmd)
	scoreCmd.AddCommand(scoreSnapshotCmd)

	scoreCmd.PersistentFlags().BoolVar(&allProjects, "all", false, "run for every project")
	scoreSnapshotCmd.Flags().StringVar(&scorePeriod, "period", score.PeriodDaily, "snapshot period (daily, weekly, monthly)")
}
