package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"pharmapos/m/domain"
	"pharmapos/m/internal/service"
)

func (a *app) reportCmd() *cobra.Command {
	var (
		start, end string
		limit      int
		window     int
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print analytics tables",
	}

	sales := &cobra.Command{
		Use:   "sales",
		Short: "Sales summary and top medicines for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.services().Analytics.Sales(cmd.Context(), service.SalesQuery{StartDate: start, EndDate: end, Limit: limit})
			if err != nil {
				return err
			}
			renderSales(cmd.OutOrStdout(), report)
			return nil
		},
	}
	sales.Flags().StringVar(&start, "start", "", "first day of the range")
	sales.Flags().StringVar(&end, "end", "", "last day of the range")
	sales.Flags().IntVar(&limit, "limit", 10, "number of top medicines")

	inventory := func(use, short string, render func(io.Writer, *domain.InventoryReport)) *cobra.Command {
		c := &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				report, err := a.services().Analytics.Medicines(cmd.Context(), service.InventoryQuery{WindowDays: window})
				if err != nil {
					return err
				}
				render(cmd.OutOrStdout(), report)
				return nil
			},
		}
		c.Flags().IntVar(&window, "window", 90, "days of sales history to analyse")
		return c
	}

	cmd.AddCommand(
		sales,
		inventory("abc", "ABC classification by revenue", renderABC),
		inventory("reorder", "Reorder forecast", renderReorder),
		inventory("dead-stock", "Stocked medicines that stopped selling", renderDeadStock),
	)
	return cmd
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleLight)
	return t
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func renderSales(w io.Writer, r *domain.SalesReport) {
	s := r.Summary
	t := newTable(w, fmt.Sprintf("Sales %s to %s", r.Range.StartDate, r.Range.EndDate))
	t.AppendRows([]table.Row{
		{"Revenue", money(s.TotalRevenue)},
		{"Transactions", s.TotalTransactions},
		{"Average sale", money(s.AverageTransaction)},
		{"Units sold", s.TotalUnitsSold},
		{"Discount", money(s.TotalDiscount)},
		{"Tax", money(s.TotalTax)},
		{"Cost", money(s.TotalCost)},
		{"Gross profit", money(s.GrossProfit)},
		{"Margin %", money(s.ProfitMargin)},
	})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()

	top := newTable(w, "Top medicines")
	top.AppendHeader(table.Row{"#", "Medicine", "Qty", "Units", "Revenue", "Profit"})
	for i, m := range r.TopMedicines {
		top.AppendRow(table.Row{i + 1, m.Name, m.QuantitySold, m.UnitsSold, money(m.Revenue), money(m.Profit)})
	}
	top.Render()
}

func renderABC(w io.Writer, r *domain.InventoryReport) {
	t := newTable(w, fmt.Sprintf("ABC analysis, last %d days", r.WindowDays))
	t.AppendHeader(table.Row{"Class", "Medicine", "Revenue", "Share %", "Cumulative %", "Stock"})
	for _, it := range r.ABC.Items {
		t.AppendRow(table.Row{it.Class, it.Name, money(it.Revenue), money(it.RevenueShare), money(it.CumulativeShare), it.QuantityInStock})
	}
	t.AppendFooter(table.Row{"", "Total", money(r.ABC.TotalRevenue)})
	t.Render()

	classes := newTable(w, "Classes")
	classes.AppendHeader(table.Row{"Class", "Medicines", "Revenue", "Share %"})
	for _, c := range r.ABC.Classes {
		classes.AppendRow(table.Row{c.Class, c.Count, money(c.Revenue), money(c.RevenueShare)})
	}
	classes.Render()
}

func renderReorder(w io.Writer, r *domain.InventoryReport) {
	t := newTable(w, fmt.Sprintf("Reorder forecast, last %d days", r.WindowDays))
	t.AppendHeader(table.Row{"Medicine", "Stock", "Avg/day", "Safety", "Reorder at", "Days left", "Suggest", "Reorder"})
	for _, f := range r.Reorder {
		days := "-"
		if f.DaysOfStock != nil {
			days = fmt.Sprintf("%.1f", *f.DaysOfStock)
		}
		flag := ""
		if f.NeedsReorder {
			flag = "yes"
		}
		t.AppendRow(table.Row{f.Name, f.QuantityInStock, money(f.AvgDailyUnits), money(f.SafetyStock), money(f.ReorderPoint), days, f.SuggestedQuantity, flag})
	}
	t.Render()
}

func renderDeadStock(w io.Writer, r *domain.InventoryReport) {
	t := newTable(w, fmt.Sprintf("Dead stock, no sales in %d days", r.WindowDays))
	t.AppendHeader(table.Row{"Medicine", "Stock", "Tied up", "Last sold", "Days idle"})
	var total float64
	for _, d := range r.DeadStock {
		last, idle := "never", "-"
		if d.LastSoldAt != nil {
			last = *d.LastSoldAt
		}
		if d.DaysSinceLastSale != nil {
			idle = fmt.Sprint(*d.DaysSinceLastSale)
		}
		total += d.TiedUpValue
		t.AppendRow(table.Row{d.Name, d.QuantityInStock, money(d.TiedUpValue), last, idle})
	}
	t.AppendFooter(table.Row{"Total", "", money(total)})
	t.Render()
}
