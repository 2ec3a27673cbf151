// ABOUTME: Product commands: list, show, create, update, delete, bestseller, upload, countries
// ABOUTME: Create and update drive the product form so encoding matches the console screens

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389/sgu-admin/internal/api"
	"github.com/2389/sgu-admin/internal/app"
	"github.com/2389/sgu-admin/internal/catalog"
	"github.com/2389/sgu-admin/internal/route"
)

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (c *cli) productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product", "p"},
		Short:   "Manage the product catalog",
	}
	cmd.AddCommand(
		c.productsListCmd(),
		c.productsShowCmd(),
		c.productsSaveCmd(true),
		c.productsSaveCmd(false),
		c.productsDeleteCmd(),
		c.productsBestSellerCmd(),
	)
	return cmd
}

func (c *cli) productsListCmd() *cobra.Command {
	var search string
	var bestOnly bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List products, optionally filtered by name, category or SKU",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.view(cmd, "/products", func(ctx context.Context, a *app.App, _ route.Decision) error {
				v := catalog.NewListView(a.API, a.Notify, a.Logger)
				if err := v.Load(ctx); err != nil {
					return err
				}
				products := v.Filter(search)
				if bestOnly {
					kept := products[:0]
					for _, p := range products {
						if p.IsBestSeller {
							kept = append(kept, p)
						}
					}
					products = kept
				}
				printProducts(cmd.OutOrStdout(), products)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive filter")
	cmd.Flags().BoolVar(&bestOnly, "bestsellers", false, "only best sellers")
	return cmd
}

func (c *cli) productsShowCmd() *cobra.Command {
	var html bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.view(cmd, "/product-details/"+args[0], func(ctx context.Context, a *app.App, _ route.Decision) error {
				v := catalog.NewDetailView(a.API, a.Notify, a.Logger)
				if err := v.Load(ctx, id); err != nil {
					return err
				}
				p, _ := v.Product()
				w := cmd.OutOrStdout()
				if html {
					r, err := v.RenderHTML()
					if err != nil {
						return err
					}
					fmt.Fprintln(w, r.Overview)
					fmt.Fprintln(w, r.Applications)
					return nil
				}
				printProduct(w, p, v.Selected())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "print overview and applications as HTML")
	return cmd
}

// productFlags are the form fields settable from the command line.
type productFlags struct {
	name, sku, overview, applications string
	countries, quality, packaging     []string
	certifications, categories        []string
	specs, images                     []string
	bestSeller                        bool
}

func (pf *productFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&pf.name, "name", "", "product name")
	f.StringVar(&pf.sku, "sku", "", "SKU code")
	f.StringVar(&pf.overview, "overview", "", "overview text (Markdown)")
	f.StringVar(&pf.applications, "applications", "", "applications text (Markdown)")
	f.StringSliceVar(&pf.countries, "country", nil, "country of origin (repeatable)")
	f.StringSliceVar(&pf.quality, "quality", nil, "quality grade: "+strings.Join(catalog.QualityGrades, ", "))
	f.StringSliceVar(&pf.packaging, "packaging", nil, "packaging: "+strings.Join(catalog.PackagingOptions, ", "))
	f.StringSliceVar(&pf.certifications, "certification", nil, "certification: "+strings.Join(catalog.Certifications, ", "))
	f.StringSliceVar(&pf.categories, "category", nil, "category: "+strings.Join(catalog.Categories, ", "))
	f.StringArrayVar(&pf.specs, "spec", nil, `specification row "name: value" (repeatable, in order)`)
	f.StringArrayVar(&pf.images, "image", nil, "image URL or local file to upload (repeatable, first is primary)")
	f.BoolVar(&pf.bestSeller, "bestseller", false, "mark as best seller")
}

// apply copies every changed flag into the form. Repeatable flags replace
// the whole field.
func (pf *productFlags) apply(ctx context.Context, cmd *cobra.Command, form *catalog.Form) error {
	changed := cmd.Flags().Changed

	text := map[string]struct {
		field catalog.Field
		value string
	}{
		"name":         {catalog.FieldName, pf.name},
		"sku":          {catalog.FieldSKU, pf.sku},
		"overview":     {catalog.FieldOverview, pf.overview},
		"applications": {catalog.FieldApplications, pf.applications},
	}
	for flag, t := range text {
		if changed(flag) {
			if err := form.Set(t.field, t.value); err != nil {
				return err
			}
		}
	}

	lists := map[string]struct {
		field  catalog.Field
		values []string
	}{
		"country":       {catalog.FieldCountry, pf.countries},
		"quality":       {catalog.FieldQuality, pf.quality},
		"packaging":     {catalog.FieldPackaging, pf.packaging},
		"certification": {catalog.FieldCertifications, pf.certifications},
		"category":      {catalog.FieldCategory, pf.categories},
	}
	for flag, l := range lists {
		if !changed(flag) {
			continue
		}
		if err := form.Set(l.field, ""); err != nil {
			return err
		}
		for _, v := range l.values {
			if err := form.Toggle(l.field, v); err != nil {
				return err
			}
		}
	}

	if changed("spec") {
		for range form.Specs() {
			if err := form.RemoveSpec(0); err != nil {
				return err
			}
		}
		for _, row := range pf.specs {
			for _, s := range api.ParseSpecs(row) {
				form.AddSpec(s.Name, s.Value)
			}
		}
	}

	if changed("image") {
		for range form.Images() {
			if err := form.RemoveImage(0); err != nil {
				return err
			}
		}
		for _, img := range pf.images {
			if err := addImage(ctx, form, img); err != nil {
				return err
			}
		}
	}

	if changed("bestseller") {
		form.SetBestSeller(pf.bestSeller)
	}
	return nil
}

// addImage uploads img when it names a local file, otherwise adds it as a URL.
func addImage(ctx context.Context, form *catalog.Form, img string) error {
	if info, err := os.Stat(img); err == nil && !info.IsDir() {
		f, err := os.Open(img)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = form.UploadImage(ctx, img, f)
		return err
	}
	return form.AddImageURL(img)
}

func (c *cli) productsSaveCmd(create bool) *cobra.Command {
	pf := &productFlags{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a product; only the given flags change",
		Args:  cobra.ExactArgs(1),
	}
	if create {
		cmd.Use = "create"
		cmd.Short = "Create a product"
		cmd.Args = cobra.NoArgs
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		path := "/add-product"
		id := 0
		if !create {
			var err error
			if id, err = parseID(args[0]); err != nil {
				return err
			}
			path = "/edit-product/" + args[0]
		}
		return c.view(cmd, path, func(ctx context.Context, a *app.App, _ route.Decision) error {
			form := catalog.NewForm(a.API, a.Notify, a.Logger)
			if !create {
				if err := form.LoadForEdit(ctx, id); err != nil {
					return err
				}
			}
			if err := pf.apply(ctx, cmd, form); err != nil {
				return err
			}
			saved, err := form.Submit(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved product %d (%s)\n", saved.ID, saved.Name)
			return nil
		})
	}
	pf.register(cmd)
	return cmd
}

func (c *cli) productsDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a product",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !newPrompter(cmd).confirm("Are you sure you want to delete this product?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			return c.view(cmd, "/products", func(ctx context.Context, a *app.App, _ route.Decision) error {
				v := catalog.NewListView(a.API, a.Notify, a.Logger)
				return v.Delete(ctx, id)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func (c *cli) productsBestSellerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bestseller <id>",
		Short: "Toggle a product's best-seller flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.view(cmd, "/products", func(ctx context.Context, a *app.App, _ route.Decision) error {
				v := catalog.NewListView(a.API, a.Notify, a.Logger)
				if err := v.Load(ctx); err != nil {
					return err
				}
				_, err := v.ToggleBestSeller(ctx, id)
				return err
			})
		},
	}
}

func (c *cli) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image and print its URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.view(cmd, "/add-product", func(ctx context.Context, a *app.App, _ route.Decision) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				up, err := a.API.UploadImage(ctx, args[0], f)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), up.URL)
				return nil
			})
		},
	}
}

func (c *cli) countriesCmd() *cobra.Command {
	var match string
	cmd := &cobra.Command{
		Use:   "countries",
		Short: "List origin countries, or suggestions for partial input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.view(cmd, "/add-product", func(ctx context.Context, a *app.App, _ route.Decision) error {
				var names []string
				if match == "" {
					var err error
					if names, err = a.API.ListCountries(ctx); err != nil {
						return err
					}
				} else {
					form := catalog.NewForm(a.API, a.Notify, a.Logger)
					if err := form.LoadCountries(ctx); err != nil {
						return err
					}
					names = form.Suggest(match)
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&match, "match", "m", "", `partial field text, e.g. "India, bra"`)
	return cmd
}
