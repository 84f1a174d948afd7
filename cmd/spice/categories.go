package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/spice-patterns/internal/cli"
	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
		Long:  `List and add the categories that learned patterns point at.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Initialize storage with auto-migration
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if len(categories) == 0 {
				_, _ = fmt.Fprintln(out, cli.InfoStyle.Render("No categories found. Use 'spice categories add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Name"),
				headerStyle.Render("Type"),
				headerStyle.Render("Color"))
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 36),
				strings.Repeat("-", 20),
				strings.Repeat("-", 11),
				strings.Repeat("-", 7))

			for _, cat := range categories {
				color := cat.Color
				if color == "" {
					color = cli.SubtleStyle.Render("-")
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cat.ID, cat.Name, cat.Type, color)
			}

			return w.Flush()
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var (
		categoryType string
		color        string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Long: `Create a new category. The type decides which transaction direction
fits it: income for money in, expenditure for money out, capital for either.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			t, err := model.ParseCategoryType(categoryType)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := store.CreateCategory(ctx, args[0], t, color)
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(),
				cli.FormatSuccess(fmt.Sprintf("Created %s category %q (ID: %s)", category.Type, category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&categoryType, "type", "t", string(model.CategoryTypeExpenditure), "Category type (income, expenditure, capital)")
	cmd.Flags().StringVar(&color, "color", "", "Display color, e.g. #FF6B6B")

	return cmd
}
