// ABOUTME: Terminal rendering for products, inquiries, settings and the dashboard
// ABOUTME: Tables use tabwriter; headings and flags use fatih/color

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/sgu-admin/internal/api"
	"github.com/2389/sgu-admin/internal/catalog"
	"github.com/2389/sgu-admin/internal/notify"
	"github.com/2389/sgu-admin/internal/sitesettings"
)

func heading(w io.Writer, title string) {
	cyan := color.New(color.FgCyan)
	fmt.Fprintln(w)
	cyan.Fprintf(w, "  %s\n", title)
	cyan.Fprintf(w, "  %s\n", strings.Repeat("-", len(title)))
}

func printProducts(w io.Writer, products []api.Product) {
	heading(w, fmt.Sprintf("Products (%d)", len(products)))
	if len(products) == 0 {
		fmt.Fprintln(w, "  (no products)")
		fmt.Fprintln(w)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tNAME\tSKU\tCATEGORY\tBEST SELLER")
	fmt.Fprintln(tw, "  --\t----\t---\t--------\t-----------")
	for _, p := range products {
		best := ""
		if p.IsBestSeller {
			best = "★"
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\n",
			p.ID, truncate(p.Name, 32), p.SKU, truncate(p.Categories.String(), 36), best)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func printProduct(w io.Writer, p api.Product, selected string) {
	heading(w, p.Name)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(tw, "  %s:\t%s\n", label, value)
	}
	row("ID", fmt.Sprint(p.ID))
	row("SKU", p.SKU)
	row("Status", p.Status)
	row("Best seller", yesNo(p.IsBestSeller))
	row("Categories", p.Categories.String())
	row("Origin", p.CountryOfOrigin.String())
	row("Quality", p.Quality.String())
	row("Packaging", p.Packaging.String())
	row("Certifications", p.Certifications.String())
	tw.Flush()

	if p.Overview != "" {
		color.New(color.FgYellow).Fprintln(w, "\n  Overview")
		fmt.Fprintln(w, indent(p.Overview))
	}
	if specs := p.Specs.String(); specs != "" {
		color.New(color.FgYellow).Fprintln(w, "\n  Specifications")
		fmt.Fprintln(w, indent(specs))
	}
	if p.Applications != "" {
		color.New(color.FgYellow).Fprintln(w, "\n  Applications")
		fmt.Fprintln(w, indent(p.Applications))
	}
	if len(p.Images) > 0 {
		color.New(color.FgYellow).Fprintln(w, "\n  Images")
		for i, img := range p.Images {
			marker := " "
			if img == selected {
				marker = ">"
			}
			fmt.Fprintf(w, "  %s %d. %s\n", marker, i+1, img)
		}
	}
	fmt.Fprintln(w)
}

func printInquiries(w io.Writer, title string, inquiries []api.Inquiry) {
	heading(w, fmt.Sprintf("%s (%d)", title, len(inquiries)))
	if len(inquiries) == 0 {
		fmt.Fprintln(w, "  (none)")
		fmt.Fprintln(w)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tFROM\tEMAIL\tSUBJECT\tRECEIVED")
	fmt.Fprintln(tw, "  --\t----\t-----\t-------\t--------")
	for _, inq := range inquiries {
		received := inq.CreatedAt
		if t, ok := inq.Created(); ok {
			received = t.Format("Jan 02 15:04")
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\n",
			inq.ID, truncate(inq.Name, 20), truncate(inq.Email, 28), truncate(inq.Subject, 24), received)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func printInquiry(w io.Writer, inq api.Inquiry) {
	heading(w, inq.Subject)
	fmt.Fprintf(w, "  From:     %s <%s>\n", inq.Name, inq.Email)
	if inq.Phone != "" {
		fmt.Fprintf(w, "  Phone:    %s\n", inq.Phone)
	}
	fmt.Fprintf(w, "  Received: %s\n\n", inq.CreatedAt)
	fmt.Fprintln(w, indent(inq.Message))
	fmt.Fprintln(w)
}

func printSettings(w io.Writer, v *sitesettings.View) {
	social := v.Social()
	heading(w, "Social Media")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, kv := range [][2]string{
		{"facebook_url", social.Facebook},
		{"instagram_url", social.Instagram},
		{"linkedin_url", social.LinkedIn},
		{"twitter_url", social.Twitter},
		{"pinterest_url", social.Pinterest},
	} {
		fmt.Fprintf(tw, "  %s\t%s\n", kv[0], orDash(kv[1]))
	}
	tw.Flush()

	b := v.Branding()
	heading(w, "Branding")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  logo_url\t%s\n", orDash(b.LogoURL))
	fmt.Fprintf(tw, "  favicon_url\t%s\n", orDash(b.FaviconURL))
	fmt.Fprintf(tw, "  trust_logos\t%s\n", orDash(strings.Join(b.TrustLogos, ", ")))
	tw.Flush()

	if other := v.Other(); len(other) > 0 {
		heading(w, "Other")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, k := range sortedKeys(other) {
			fmt.Fprintf(tw, "  %s\t%s\n", k, truncate(other[k], 60))
		}
		tw.Flush()
	}
	fmt.Fprintln(w)
}

func printDashboard(w io.Writer, d *catalog.Dashboard) {
	s := d.Stats()
	heading(w, "Dashboard")
	green := color.New(color.FgGreen)
	green.Fprintf(w, "  Products:     ")
	fmt.Fprintf(w, "%d\n", s.Products)
	green.Fprintf(w, "  Sectors:      ")
	fmt.Fprintf(w, "%d\n", s.Sectors)
	green.Fprintf(w, "  Inquiries:    ")
	fmt.Fprintf(w, "%d\n", s.Inquiries)
	green.Fprintf(w, "  Active users: ")
	fmt.Fprintf(w, "%d\n", s.ActiveUsers)

	acts := d.Activities()
	heading(w, "Recent Activity")
	if len(acts) == 0 {
		fmt.Fprintln(w, "  (nothing yet)")
	}
	for _, a := range acts {
		tag := color.BlueString("product")
		if a.Kind == catalog.ActivityInquiry {
			tag = color.MagentaString("inquiry")
		}
		fmt.Fprintf(w, "  [%s] %s\n", tag, a.Text)
	}
	fmt.Fprintln(w)
}

func printNotification(w io.Writer, n notify.Notification) {
	if !n.Visible {
		return
	}
	if n.Kind == notify.KindError {
		color.New(color.FgRed).Fprintf(w, "✗ %s\n", n.Message)
		return
	}
	color.New(color.FgGreen).Fprintf(w, "✓ %s\n", n.Message)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printForm(w io.Writer, f *catalog.Form) {
	p := f.Draft()
	title := "Add Product"
	if f.Mode() == catalog.ModeEdit {
		title = fmt.Sprintf("Edit Product %d", f.ID())
	}
	heading(w, title)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range [][2]string{
		{string(catalog.FieldName), p.Name},
		{string(catalog.FieldSKU), p.SKU},
		{string(catalog.FieldCountry), p.CountryOfOrigin.String()},
		{string(catalog.FieldQuality), p.Quality.String()},
		{string(catalog.FieldPackaging), p.Packaging.String()},
		{string(catalog.FieldCertifications), p.Certifications.String()},
		{string(catalog.FieldCategory), p.Categories.String()},
		{"bestseller", yesNo(p.IsBestSeller)},
	} {
		fmt.Fprintf(tw, "  %s\t%s\n", row[0], orDash(row[1]))
	}
	tw.Flush()

	color.New(color.FgYellow).Fprintln(w, "\n  Overview")
	fmt.Fprintln(w, indent(orDash(p.Overview)))
	color.New(color.FgYellow).Fprintln(w, "\n  Applications")
	fmt.Fprintln(w, indent(orDash(p.Applications)))

	color.New(color.FgYellow).Fprintln(w, "\n  Specifications")
	for i, row := range f.Specs() {
		fmt.Fprintf(w, "    %d. %s: %s\n", i+1, orDash(row.Name), orDash(row.Value))
	}

	color.New(color.FgYellow).Fprintf(w, "\n  Images (%d/%d)\n", len(p.Images), catalog.MaxImages)
	for i, img := range p.Images {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s %d. %s\n", marker, i+1, img)
	}
	fmt.Fprintln(w)
}
