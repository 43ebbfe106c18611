package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offthechainak/hourbank/pkg/core/model"
	"github.com/offthechainak/hourbank/pkg/core/services"
)

// ListVolunteersCmd creates the listVolunteers command
func ListVolunteersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listVolunteers",
		Short: "List all volunteers with their banked hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteers, err := app.Database.ListVolunteers(app.Ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d volunteers:\n\n", len(volunteers))
			for _, v := range volunteers {
				adminInfo := ""
				if v.IsAdmin {
					adminInfo = " [admin]"
				}
				sessionInfo := ""
				if v.CurrentClockEventID != "" {
					sessionInfo = " (on shift)"
				}
				fmt.Printf("- %s (%s) - %.2f hours - %s%s%s\n",
					v.Name, v.ID, v.Hours, v.Email, adminInfo, sessionInfo)
			}
			fmt.Println()

			return nil
		},
	}
}

// AddVolunteerCmd creates the addVolunteer command
func AddVolunteerCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addVolunteer <name> <email>",
		Short: "Register a new volunteer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, _ := cmd.Flags().GetFloat64("hours")
			admin, _ := cmd.Flags().GetBool("admin")

			volunteer := &model.Volunteer{
				Name:    args[0],
				Email:   args[1],
				Hours:   hours,
				IsAdmin: admin,
			}
			id, err := services.CreateVolunteer(app.Ctx, app.Database, app.Logger, volunteer)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Volunteer created!\n\n")
			fmt.Printf("Volunteer ID:    %s\n", id)
			fmt.Printf("Opening balance: %.2f hours\n\n", volunteer.Hours)

			return nil
		},
	}

	cmd.Flags().Float64("hours", 0, "Opening balance in hours (quarter-hour rounded)")
	cmd.Flags().Bool("admin", false, "Give the volunteer admin rights")

	return cmd
}
