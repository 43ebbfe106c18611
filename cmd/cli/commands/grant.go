package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/offthechainak/hourbank/pkg/core/services"
)

// GrantCmd creates the grant command
func GrantCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <volunteer_id> <hours>",
		Short: "Credit hours to a volunteer manually",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteerID := args[0]
			hours, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("hours must be a number: %w", err)
			}

			credited, err := services.GrantHours(app.Ctx, app.Database, app.Logger, volunteerID, hours)
			if err != nil {
				return err
			}

			volunteer, err := app.Database.GetVolunteer(app.Ctx, volunteerID)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Hours granted!\n\n")
			fmt.Printf("Credited:    %.2f hours", credited)
			if credited != hours {
				fmt.Printf(" (rounded up from %g)", hours)
			}
			fmt.Printf("\nNew balance: %.2f hours\n\n", volunteer.Hours)

			return nil
		},
	}
}
