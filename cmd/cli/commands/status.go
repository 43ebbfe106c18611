package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offthechainak/hourbank/internal/tui"
	"github.com/offthechainak/hourbank/pkg/core/model"
	"github.com/offthechainak/hourbank/pkg/core/services"
	"github.com/offthechainak/hourbank/pkg/utils/logging"
)

// StatusCmd creates the status command
func StatusCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <volunteer_id>",
		Short: "Show a volunteer's balance and open session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteerID := args[0]
			watch, _ := cmd.Flags().GetBool("watch")

			volunteer, err := app.Database.GetVolunteer(app.Ctx, volunteerID)
			if err != nil {
				return err
			}

			event, err := services.ActiveSession(app.Ctx, app.Database, volunteerID)
			if err != nil {
				return err
			}

			if watch {
				if event == nil {
					return fmt.Errorf("volunteer %s has no open session to watch", volunteerID)
				}
				return watchSession(app, volunteer, event)
			}

			fmt.Printf("\n%s\n", volunteer.Name)
			fmt.Printf("Balance: %.2f hours\n", volunteer.Hours)
			if event != nil {
				fmt.Printf("On shift since %s (%.2f hours so far)\n",
					event.StartTime.Local().Format("15:04:05"),
					event.Elapsed().Hours())
			} else {
				fmt.Println("Not clocked in.")
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().Bool("watch", false, "Follow the open session with a live timer")

	return cmd
}

// watchSession hands the terminal to the session timer. Logging switches to
// the file-only logger for the duration so zap output does not corrupt the
// display.
func watchSession(app *AppContext, volunteer *model.Volunteer, event *model.ClockEvent) error {
	fileLogger, err := logging.InitFileLogger(app.Env)
	if err != nil {
		return fmt.Errorf("failed to initialize file logger: %w", err)
	}
	defer fileLogger.Sync()

	return tui.RunSessionTimer(volunteer, event, func() (*model.ClockEvent, error) {
		return services.ClockOut(app.Ctx, app.Database, fileLogger, volunteer.ID, event.ID)
	})
}
