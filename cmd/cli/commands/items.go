package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/offthechainak/hourbank/pkg/core/services"
)

// ListItemsCmd creates the listItems command
func ListItemsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listItems",
		Short: "List the store items volunteers can redeem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.Database.ListStoreItems(app.Ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d store items:\n\n", len(items))
			for _, item := range items {
				fmt.Printf("- %-20s %s (%.2f hours)\n", item.ID, item.Name, item.Cost)
			}
			fmt.Println()

			return nil
		},
	}
}

// AddItemCmd creates the addItem command
func AddItemCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "addItem <name> <cost>",
		Short: "Add or replace a store item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cost, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("cost must be a number: %w", err)
			}

			item, err := services.AddStoreItem(app.Ctx, app.Database, app.Logger, args[0], cost)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Store item saved!\n\n")
			fmt.Printf("Item ID: %s\n", item.ID)
			fmt.Printf("Cost:    %.2f hours\n\n", item.Cost)

			return nil
		},
	}
}
