package main

import (
	"errors"
	"fmt"
	"strings"

	"product-dashboard/internal/client"

	"github.com/spf13/cobra"
)

func newListCmd(c *cli) *cobra.Command {
	var (
		search   string
		category string
		page     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products, filtered and paginated",
		Long: `List fetches the product collection and shows one page of it.

--search matches product names ignoring case, --category keeps a single
category ("All" disables it) and --page selects the page to show.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			if _, err := a.requireUser(ctx); err != nil {
				return err
			}
			if err := a.dashboard.Reload(ctx); err != nil {
				return describe(err, client.OpList)
			}

			a.dashboard.Filters.SetSearch(search)
			a.dashboard.Filters.SetCategory(category)
			a.dashboard.Filters.SetPage(page)

			view := a.dashboard.View().View
			if view.PageCount > 0 && view.Page > view.PageCount {
				fmt.Fprintf(cmd.OutOrStdout(), "Page %d is past the end, showing page %d\n", view.Page, view.PageCount)
				a.dashboard.Filters.SetPage(view.PageCount)
				view = a.dashboard.View().View
			}

			renderList(cmd.OutOrStdout(), view)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Only names containing this text")
	cmd.Flags().StringVar(&category, "category", "All", "Only this category")
	cmd.Flags().IntVar(&page, "page", 1, "Page to show")
	return cmd
}

func newGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			if _, err := a.requireUser(ctx); err != nil {
				return err
			}
			product, err := a.dashboard.Store.FetchProduct(ctx, args[0])
			if err != nil {
				return describe(err, client.OpGet)
			}

			renderProduct(cmd.OutOrStdout(), product)
			return nil
		},
	}
}

// productFlags are the product form fields as command line flags
type productFlags struct {
	input client.ProductInput
}

func (f *productFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.input.Name, "name", "", "Product name")
	cmd.Flags().StringVar(&f.input.Category, "category", "", "Category")
	cmd.Flags().Float64Var(&f.input.Price, "price", 0, "Price in USD")
	cmd.Flags().IntVar(&f.input.Stock, "stock", 0, "Units in stock")
}

// patch holds only the flags the user set
func (f *productFlags) patch(cmd *cobra.Command) client.ProductPatch {
	var p client.ProductPatch
	if cmd.Flags().Changed("name") {
		p.Name = &f.input.Name
	}
	if cmd.Flags().Changed("category") {
		p.Category = &f.input.Category
	}
	if cmd.Flags().Changed("price") {
		p.Price = &f.input.Price
	}
	if cmd.Flags().Changed("stock") {
		p.Stock = &f.input.Stock
	}
	return p
}

func newCreateCmd(c *cli) *cobra.Command {
	var flags productFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.input.Validate(client.OpCreate); err != nil {
				return describe(err, client.OpCreate)
			}

			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			if _, err := a.requireUser(ctx); err != nil {
				return err
			}
			product, err := a.dashboard.Store.CreateProduct(ctx, flags.input.CreateRequest())
			if err != nil {
				return describe(err, client.OpCreate)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created product %s (%s)\n", product.ID, product.Name)
			return nil
		},
	}

	flags.bind(cmd)
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("category")
	return cmd
}

func newUpdateCmd(c *cli) *cobra.Command {
	var flags productFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a product",
		Long: `Update loads the product and replaces the fields given as flags.
Every other field and attribute keeps its current value, including unknown
price or stock. The status follows --stock when it is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			if _, err := a.requireUser(ctx); err != nil {
				return err
			}

			patch := flags.patch(cmd)
			if err := patch.Validate(); err != nil {
				return describe(err, client.OpUpdate)
			}

			current, err := a.dashboard.Store.FetchProduct(ctx, args[0])
			if err != nil {
				return describe(err, client.OpGet)
			}

			product, err := a.dashboard.Store.UpdateProduct(ctx, patch.Apply(current))
			if err != nil {
				return describe(err, client.OpUpdate)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated product %s (%s)\n", product.ID, product.Name)
			return nil
		},
	}

	flags.bind(cmd)
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			if _, err := a.requireUser(ctx); err != nil {
				return err
			}
			if err := a.dashboard.Store.DeleteProduct(ctx, args[0]); err != nil {
				return describe(err, client.OpDelete)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted product %s\n", args[0])
			return nil
		},
	}
}

// describe turns an operation error into the message shown to the user,
// listing invalid fields one per line
func describe(err error, op client.Op) error {
	message := client.Message(err, op.FallbackMessage())

	var apiErr *client.Error
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return errors.New(message)
	}

	var b strings.Builder
	b.WriteString(message)
	for _, f := range apiErr.Fields {
		fmt.Fprintf(&b, "\n  %s: %s", f.Field, f.Message)
	}
	return errors.New(b.String())
}
