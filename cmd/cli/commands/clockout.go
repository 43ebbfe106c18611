package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offthechainak/hourbank/pkg/core/services"
)

// ClockOutCmd creates the clockout command
func ClockOutCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clockout <volunteer_id> [event_id]",
		Short: "Close a volunteer's work session and credit the hours",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteerID := args[0]

			var eventID string
			if len(args) > 1 {
				eventID = args[1]
			} else {
				event, err := services.ActiveSession(app.Ctx, app.Database, volunteerID)
				if err != nil {
					return err
				}
				if event == nil {
					return fmt.Errorf("volunteer %s has no open session", volunteerID)
				}
				eventID = event.ID
			}

			completed, err := services.ClockOut(app.Ctx, app.Database, app.Logger, volunteerID, eventID)
			if err != nil {
				return err
			}

			volunteer, err := app.Database.GetVolunteer(app.Ctx, volunteerID)
			if err != nil {
				return err
			}

			credited := 0.0
			if completed.HoursAccumulated != nil {
				credited = *completed.HoursAccumulated
			}

			fmt.Printf("\n✓ Clocked out!\n\n")
			fmt.Printf("Session:       %s -> %s\n",
				completed.StartTime.Local().Format("15:04:05"),
				completed.EndTime.Local().Format("15:04:05"))
			fmt.Printf("Hours credited: %.2f\n", credited)
			fmt.Printf("New balance:    %.2f\n\n", volunteer.Hours)

			return nil
		},
	}
}
