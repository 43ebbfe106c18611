package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// TransactionsCmd creates the transactions command
func TransactionsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transactions <volunteer_id>",
		Short: "Show a volunteer's redemption and adjustment history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteerID := args[0]

			transactions, err := app.Database.ListTransactions(app.Ctx, volunteerID)
			if err != nil {
				return err
			}
			adjustments, err := app.Database.ListAdjustments(app.Ctx, volunteerID)
			if err != nil {
				return err
			}

			fmt.Printf("\nRedemptions (%d):\n", len(transactions))
			for _, t := range transactions {
				fmt.Printf("  %s  -%.2f hours  %s  (%s)\n",
					t.Date.Local().Format("2006-01-02 15:04"), t.HoursDeducted, t.ItemID, t.ID)
			}

			fmt.Printf("\nAdjustments (%d):\n", len(adjustments))
			for _, a := range adjustments {
				fmt.Printf("  %s  +%.2f hours  %s\n",
					a.Date.Local().Format("2006-01-02 15:04"), a.Hours, a.Reason)
			}
			fmt.Println()

			return nil
		},
	}
}
