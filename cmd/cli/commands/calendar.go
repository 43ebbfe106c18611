package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/offthechainak/hourbank/pkg/schedule"
)

// CalendarCmd creates the calendar command
func CalendarCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show upcoming shift dates from the configured recurrence rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")

			rules := make([]schedule.Rule, 0, len(app.Cfg.Shifts))
			for _, shift := range app.Cfg.Shifts {
				rules = append(rules, schedule.Rule{Name: shift.Name, RRule: shift.RRule})
			}

			occurrences, err := schedule.Upcoming(rules, time.Now(), count)
			if err != nil {
				return err
			}

			if len(occurrences) == 0 {
				fmt.Println("\nNo upcoming shifts. Add shift rules to the config file.")
				return nil
			}

			fmt.Printf("\nNext %d shifts:\n\n", len(occurrences))
			for i, occ := range occurrences {
				fmt.Printf("  %2d. %s  %s\n", i+1, occ.Date.Format("2006-01-02 (Monday)"), occ.Name)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().Int("count", 10, "Number of upcoming shifts to show")

	return cmd
}
