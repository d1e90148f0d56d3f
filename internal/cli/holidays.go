package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/efilo/compliance/internal/calendar"
)

var holidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "Project holiday operations",
}

var holidaysListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's holiday overrides",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		projectID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid project id: %w", err)
		}

		db, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := calendar.NewService(calendar.NewRepository(db.Pool))
		holidays, err := svc.ListHolidays(ctx, projectID)
		if err != nil {
			return err
		}

		if len(holidays) == 0 {
			fmt.Println("no project holidays")
			return nil
		}
		for _, h := range holidays {
			fmt.Printf("%s  %s (%s)\n", h.Date.Format("2006-01-02"), h.Name, h.Source)
		}
		return nil
	},
}

var holidaysAddCmd = &cobra.Command{
	Use:   "add <project-id> <date> <name>",
	Short: "Add a project holiday (date as YYYY-MM-DD)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		projectID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid project id: %w", err)
		}

		day, err := time.Parse("2006-01-02", args[1])
		if err != nil {
			return fmt.Errorf("invalid date (use YYYY-MM-DD): %w", err)
		}

		db, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := calendar.NewService(calendar.NewRepository(db.Pool))
		holiday := &calendar.ProjectHoliday{
			ProjectID: projectID,
			Date:      day,
			Name:      args[2],
			Source:    calendar.SourceManual,
		}
		if err := svc.AddHoliday(ctx, holiday); err != nil {
			return err
		}

		fmt.Printf("added holiday %s on %s\n", holiday.Name, holiday.Date.Format("2006-01-02"))
		return nil
	},
}

func init() {
	holidaysCmd.AddCommand(holidaysListCmd)
	holidaysCmd.AddCommand(holidaysAddCmd)
}
