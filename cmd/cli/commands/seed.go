package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offthechainak/hourbank/pkg/core/services"
)

// SeedCmd creates the seed command
func SeedCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Bootstrap sample volunteers and store items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.SeedDatabase(app.Ctx, app.Database, app.Logger)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Seed complete!\n\n")
			fmt.Printf("Volunteers seeded: %d\n", result.VolunteersSeeded)
			fmt.Printf("Store items seeded: %d\n\n", result.ItemsSeeded)
			if result.VolunteersSeeded == 0 && result.ItemsSeeded == 0 {
				fmt.Println("Both collections already held data, nothing written.")
			}

			return nil
		},
	}
}
