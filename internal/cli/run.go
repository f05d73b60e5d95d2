package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"crm_sync_backend/internal/crm/domain"
	"crm_sync_backend/internal/crm/transport"

	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	LookbackDays int
	Limit        int
	Status       string
	Intent       string
	FailOnGhost  bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions, deps Deps) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one reconciliation pass and print it",
		Long: `Run one reconciliation pass against both ledgers and print the result.

Example:
  crm-audit run --status GHOST
  crm-audit run --format json --lookback 30 --fail-on-ghost`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, opts, deps)
		},
	}

	cmd.Flags().IntVar(&opts.LookbackDays, "lookback", 0, "agenda lookback in days (default from config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum customers to read (default from config)")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only show this integrity status (OK|GHOST|MANUAL|NONE)")
	cmd.Flags().StringVar(&opts.Intent, "intent", "", "only show this business intent")
	cmd.Flags().BoolVar(&opts.FailOnGhost, "fail-on-ghost", false, "exit non-zero when any ghost appointment is found")

	return cmd
}

func runPass(cmd *cobra.Command, opts *RunOptions, deps Deps) error {
	req := transport.DashboardRequest{
		LookbackDays: opts.LookbackDays,
		Limit:        opts.Limit,
		Status:       strings.ToUpper(strings.TrimSpace(opts.Status)),
		Intent:       strings.TrimSpace(opts.Intent),
	}
	if req.Status != "" {
		if _, ok := domain.ParseIntegrityStatus(req.Status); !ok {
			return fmt.Errorf("invalid status %q", opts.Status)
		}
	}

	svc, release, err := deps.Dashboarder(cmd.Context())
	if err != nil {
		return fmt.Errorf("connect ledgers: %w", err)
	}
	defer release()

	resp, err := svc.Dashboard(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		if err := writeJSON(out, resp); err != nil {
			return err
		}
	} else if err := writeTable(out, resp); err != nil {
		return err
	}

	if ghosts := resp.Summary.ByStatus[string(domain.StatusGhost)]; opts.FailOnGhost && ghosts > 0 {
		return fmt.Errorf("%d ghost appointment(s) found", ghosts)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, resp transport.DashboardResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tINTENT\tSTATUS\tMATCH\tTECHNICIAN\tNEXT ACTION\tAT")
	for _, r := range resp.Data {
		match := "-"
		if r.MatchedAppointment != nil {
			match = r.MatchedAppointment.Method
		}
		action, at := "-", "-"
		if r.PredictedNextAction != nil {
			action = r.PredictedNextAction.Message
			at = r.PredictedNextAction.ScheduledAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Name, r.BusinessIntent, r.IntegrityStatus, match, r.ResolvedTechnicianName, action, at)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := resp.Summary
	_, err := fmt.Fprintf(w, "\n%d customers: %d OK, %d GHOST, %d MANUAL, %d NONE, %d anomalies\n",
		s.Total,
		s.ByStatus[string(domain.StatusOK)],
		s.ByStatus[string(domain.StatusGhost)],
		s.ByStatus[string(domain.StatusManual)],
		s.ByStatus[string(domain.StatusNone)],
		s.Anomalies,
	)
	return err
}
