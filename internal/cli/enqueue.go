package cli

import (
	"fmt"
	"time"

	"crm_sync_backend/internal/crm/service"
	"crm_sync_backend/internal/scheduler"

	"github.com/spf13/cobra"
)

// NewEnqueueCommand creates the enqueue command.
func NewEnqueueCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue",
		Short: "Ask the scheduler worker to run an audit pass now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, release, err := deps.Enqueuer(cmd.Context())
			if err != nil {
				return fmt.Errorf("connect scheduler: %w", err)
			}
			defer release()

			id, err := client.EnqueueAudit(cmd.Context(), scheduler.AuditPayload{
				Trigger:     service.TriggerCLI,
				RequestedAt: time.Now().UTC(),
			})
			if err != nil {
				return fmt.Errorf("enqueue audit: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "audit task %s enqueued\n", id)
			return err
		},
	}
}
