package cli

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/efilo/compliance/internal/audit"
)

var (
	auditEventType string
	auditLimit     int
)

var auditCmd = &cobra.Command{
	Use:   "audit <project-id>",
	Short: "Show recent compliance audit entries for a project",
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

		repo := audit.NewRepository(db.Pool)
		entries, err := repo.ListByProject(ctx, projectID, auditEventType, auditLimit)
		if err != nil {
			return err
		}

		for _, e := range entries {
			details := ""
			if e.Details != nil {
				if b, err := json.Marshal(e.Details); err == nil {
					details = " " + string(b)
				}
			}
			fmt.Printf("%s  %-24s %s %s/%s%s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"),
				e.EventType, e.ActorType, e.EntityType, e.EntityID, details)
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditEventType, "event-type", "", "filter by event type")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum entries to show")
}
