package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offthechainak/hourbank/pkg/core/services"
)

// ClockInCmd creates the clockin command
func ClockInCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clockin <volunteer_id>",
		Short: "Open a work session for a volunteer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteerID := args[0]

			eventID, err := services.ClockIn(app.Ctx, app.Database, app.Logger, volunteerID)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Clocked in!\n\n")
			fmt.Printf("Volunteer ID: %s\n", volunteerID)
			fmt.Printf("Event ID:     %s\n\n", eventID)
			fmt.Println("Use 'status --watch' to follow the session or 'clockout' to close it.")

			return nil
		},
	}
}
