package cli

import (
	"fmt"
	"os"

	"crm_sync_backend/internal/crm/domain"

	"github.com/spf13/cobra"
)

type rulesSummary struct {
	Timezone         string `json:"timezone"`
	DispatchInterval string `json:"dispatchInterval"`
	LinkCaseField    string `json:"linkCaseField"`
	LinkByCustomerID bool   `json:"linkByCustomerId"`
}

// NewRulesCommand creates the rules command, which checks a rule file
// without touching either ledger.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules <file>",
		Short: "Validate a rule table override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			rules, err := domain.ParseRules(data, domain.DefaultRules())
			if err != nil {
				return err
			}

			summary := rulesSummary{
				Timezone:         rules.Location.String(),
				DispatchInterval: rules.DispatchInterval.String(),
				LinkCaseField:    rules.LinkCaseField,
				LinkByCustomerID: rules.LinkByCustomerID,
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "rule file ok: timezone=%s dispatch=%s link=%s byCustomer=%t\n",
				summary.Timezone, summary.DispatchInterval, summary.LinkCaseField, summary.LinkByCustomerID)
			return err
		},
	}
}
