package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offthechainak/hourbank/pkg/core/services"
)

// RedeemCmd creates the redeem command
func RedeemCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redeem <volunteer_id> <item_id>",
		Short: "Exchange banked hours for a store item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteerID := args[0]
			itemID := args[1]
			idempotencyKey, _ := cmd.Flags().GetString("idempotency-key")

			receipt, err := services.Redeem(app.Ctx, app.Database, app.Logger, volunteerID, itemID, idempotencyKey)
			if err != nil {
				return err
			}

			volunteer, err := app.Database.GetVolunteer(app.Ctx, volunteerID)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Item redeemed!\n\n")
			fmt.Printf("Transaction ID: %s\n", receipt.ID)
			fmt.Printf("Item:           %s\n", receipt.ItemID)
			fmt.Printf("Hours deducted: %.2f\n", receipt.HoursDeducted)
			fmt.Printf("New balance:    %.2f\n\n", volunteer.Hours)

			return nil
		},
	}

	cmd.Flags().String("idempotency-key", "", "Reuse the same key to make retries safe")

	return cmd
}
