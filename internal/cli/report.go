package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"trainingcrm/internal/models"
	"trainingcrm/internal/services"
	"trainingcrm/internal/utils"
	"trainingcrm/internal/views"
)

func dashboardFor(cmd *cobra.Command) (*services.DashboardService, func(), error) {
	cfg, st, closeFn, err := loadStore(cmd)
	if err != nil {
		return nil, nil, err
	}
	return services.NewDashboardService(st, time.Now, cfg.Loc()), closeFn, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print won/lost totals, the monthly breakdown and the top customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, closeFn, err := dashboardFor(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		a := d.Analytics()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), a)
		}
		printAnalytics(cmd.OutOrStdout(), a)
		return nil
	},
}

func printAnalytics(out io.Writer, a views.Analytics) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Kazanılan\t%s\t(%d eğitim)\n", utils.FormatTRY(a.TotalWon), a.WonCount)
	fmt.Fprintf(w, "Kaybedilen\t%s\t(%d eğitim)\n", utils.FormatTRY(a.TotalLost), a.LostCount)
	fmt.Fprintf(w, "Devam eden\t%s\t\n", utils.FormatTRY(a.TotalOngoing))
	fmt.Fprintf(w, "Kapanış oranı\t%s\t\n", utils.FormatPercent(a.ClosingRate))
	w.Flush()

	fmt.Fprintln(out, "\nAylık:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AY\tKAZANILAN\tKAYBEDİLEN")
	for _, m := range a.Monthly {
		if m.Won == 0 && m.Lost == 0 {
			continue
		}
		fmt.Fprintf(w, "%02d\t%s\t%s\n", int(m.Month), utils.FormatTRY(m.Won), utils.FormatTRY(m.Lost))
	}
	w.Flush()

	fmt.Fprintln(out, "\nEn iyi müşteriler:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, c := range a.TopCustomers {
		fmt.Fprintf(w, "%d.\t%s\t%s\n", i+1, c.Name, utils.FormatTRY(c.Amount))
	}
	w.Flush()
}

// customersCmd represents the customers command
var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "List customers with their won, lost and ongoing totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, closeFn, err := dashboardFor(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		list := d.Customers()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), list)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MÜŞTERİ\tİLGİLİ KİŞİ\tFIRSAT\tKAZANILAN\tKAYBEDİLEN\tDEVAM EDEN\tSON TEMAS")
		for _, c := range list {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
				c.Name, c.Contact.FullName(), c.OpportunityCount,
				utils.FormatTRY(c.TotalWon), utils.FormatTRY(c.TotalLost), utils.FormatTRY(c.TotalOngoing),
				c.LastInteraction.In(d.Location).Format("02.01.2006"))
		}
		return w.Flush()
	},
}

// ParseMonth reads YYYY-MM. An empty value means the month of now.
func ParseMonth(v string, now time.Time) (int, time.Month, error) {
	if v == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", v)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, expected YYYY-MM", v)
	}
	return t.Year(), t.Month(), nil
}

// calendarCmd represents the calendar command
var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show open opportunities by target close day",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, closeFn, err := dashboardFor(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		month, _ := cmd.Flags().GetString("month")
		y, m, err := ParseMonth(month, d.Now().In(d.Location))
		if err != nil {
			return err
		}
		cal := d.Calendar(y, m)
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), cal)
		}
		printCalendar(cmd.OutOrStdout(), cal)
		return nil
	},
}

func printCalendar(out io.Writer, cal views.Calendar) {
	fmt.Fprintf(out, "%04d-%02d\n", cal.Year, int(cal.Month))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GÜN\tMÜŞTERİ\tFIRSAT\tAŞAMA\tTUTAR")
	for _, c := range cal.Cells {
		for _, o := range c.Opportunities {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Date, o.CustomerName, o.Name, o.Status, utils.FormatTRY(o.TotalAmount))
		}
	}
	w.Flush()
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the (filtered) kanban board as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, closeFn, err := dashboardFor(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		var f views.Filter
		f.Query, _ = cmd.Flags().GetString("query")
		if cmd.Flags().Changed("min-amount") {
			v, _ := cmd.Flags().GetFloat64("min-amount")
			f.MinAmount = &v
		}
		f.CreatedThisMonth, _ = cmd.Flags().GetBool("this-month")

		out := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			file, err := os.Create(path)
			if err != nil {
				return err
			}
			defer file.Close()
			out = file
		}
		n, err := d.ExportCSV(out, f)
		if err != nil {
			return err
		}
		utils.Log.WithField("rows", n).Info("export done")
		return nil
	},
}

// staleCmd represents the stale command
var staleCmd = &cobra.Command{
	Use:   "stale",
	Short: "List open opportunities nobody touched for more than five days",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, closeFn, err := loadStore(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		now := time.Now()
		var stale []models.Opportunity
		for _, o := range st.Snapshot() {
			if views.IsStale(&o, now) {
				stale = append(stale, o)
			}
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MÜŞTERİ\tFIRSAT\tAŞAMA\tSON GÜNCELLEME")
		for _, o := range stale {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.CustomerName, o.Name, o.Status, o.LastTouched().In(cfg.Loc()).Format("02.01.2006 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	for _, c := range []*cobra.Command{reportCmd, customersCmd, calendarCmd} {
		c.Flags().Bool("json", false, "Print JSON instead of a table")
		rootCmd.AddCommand(c)
	}
	calendarCmd.Flags().String("month", "", "Month to show as YYYY-MM (default current month)")

	exportCmd.Flags().StringP("query", "q", "", "Case-insensitive match on opportunity or customer name")
	exportCmd.Flags().Float64("min-amount", 0, "Only opportunities worth at least this much")
	exportCmd.Flags().Bool("this-month", false, "Only opportunities created this month")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(staleCmd)
}
