// Package cli implements the crm-audit command line tool.
package cli

import (
	"context"
	"fmt"
	"slices"

	"crm_sync_backend/internal/crm/transport"
	"crm_sync_backend/internal/scheduler"

	"github.com/spf13/cobra"
)

// Dashboarder runs a reconciliation pass and returns the filtered view.
type Dashboarder interface {
	Dashboard(ctx context.Context, req transport.DashboardRequest) (transport.DashboardResponse, error)
}

// Enqueuer hands an audit pass to the scheduler worker.
type Enqueuer interface {
	EnqueueAudit(ctx context.Context, payload scheduler.AuditPayload) (string, error)
}

// Deps builds the infrastructure a command needs. Each factory is only
// called by the commands that use it; the returned func releases it.
type Deps struct {
	Dashboarder func(ctx context.Context) (Dashboarder, func(), error)
	Enqueuer    func(ctx context.Context) (Enqueuer, func(), error)
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "table" | "json"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"table", "json"}

// NewRootCommand creates the root command of crm-audit.
func NewRootCommand(deps Deps) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "crm-audit",
		Short: "Reconcile the CRM against the agenda",
		Long: `crm-audit compares what the CRM expects with what the agenda holds,
flags ghost and manual appointments, and predicts the dispatcher's next
message for every customer.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "table", "output format (table|json)")

	cmd.AddCommand(NewRunCommand(opts, deps))
	cmd.AddCommand(NewEnqueueCommand(deps))
	cmd.AddCommand(NewRulesCommand(opts))

	return cmd
}
