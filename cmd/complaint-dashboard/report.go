package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"complaintdash/cmd/complaint-dashboard/internal/biz"
	"complaintdash/cmd/complaint-dashboard/internal/conf"
	"complaintdash/cmd/complaint-dashboard/internal/data"
	"complaintdash/cmd/complaint-dashboard/internal/domain"
	"complaintdash/cmd/complaint-dashboard/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	reportCSV     string
	reportAsOf    string
	reportToday   string
	reportOrigins []string
	reportOwners  []string
	reportFormat  string
	reportVisible int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute the dashboard once and print it",
	Long: `Loads the complaints CSV, applies the filters and prints KPIs, breakdowns
and the owner leaderboard. Omitting --origin/--owner selects all values.`,
	Example: `  complaint-dashboard report --csv Complaints.csv --origin Email --owner Alice --as-of 2024-03-10
  complaint-dashboard report --format json`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportCSV, "csv", "", "CSV 文件路径（默认取配置 dataset.path）")
	reportCmd.Flags().StringVar(&reportAsOf, "as-of", "", "筛选日期 YYYY-MM-DD（默认今天）")
	reportCmd.Flags().StringVar(&reportToday, "today", "", "视为今天的日期 YYYY-MM-DD")
	reportCmd.Flags().StringSliceVar(&reportOrigins, "origin", nil, "来源（可重复，All 表示全部）")
	reportCmd.Flags().StringSliceVar(&reportOwners, "owner", nil, "负责人（可重复，All 表示全部）")
	reportCmd.Flags().StringVar(&reportFormat, "format", "text", "输出格式: text|json|yaml")
	reportCmd.Flags().IntVar(&reportVisible, "visible", 0, "排行榜可见人数（默认取配置）")
}

// staticSnapshot 单次报表使用的固定快照
type staticSnapshot struct {
	table *domain.Table
}

func (s staticSnapshot) Current(context.Context) (*domain.Table, error) { return s.table, nil }
func (s staticSnapshot) Reload(context.Context) (*domain.Table, error)  { return s.table, nil }

func runReport(cmd *cobra.Command, args []string) error {
	config, err := conf.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if reportCSV != "" {
		config.Dataset.Path = reportCSV
	}

	loc, err := config.Dataset.Location()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	table, err := data.LoadCSV(ctx, config.Dataset.Path, data.LoadOptions{
		Location:    loc,
		DateLayouts: config.Dataset.DateLayouts,
	})
	if err != nil {
		return err
	}

	ucConfig, err := biz.NewDashboardUsecaseConfig(config)
	if err != nil {
		return err
	}
	uc := biz.NewDashboardUsecase(staticSnapshot{table: table}, data.NoopDashboardCache{}, ucConfig, zap.NewNop())
	svc := service.NewDashboardService(uc)

	req := service.DashboardRequest{
		AsOf:    reportAsOf,
		Today:   reportToday,
		Visible: reportVisible,
	}
	if cmd.Flags().Changed("origin") {
		req.Origins = nonNil(reportOrigins)
	}
	if cmd.Flags().Changed("owner") {
		req.Owners = nonNil(reportOwners)
	}

	dashboard, err := svc.GetDashboard(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(reportFormat) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(dashboard)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(dashboard)
	case "text":
		return renderText(out, dashboard)
	default:
		return fmt.Errorf("unknown format %q, expected text, json or yaml", reportFormat)
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// renderText 文本形式输出看板
func renderText(w io.Writer, d *domain.Dashboard) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Complaint Dashboard  (snapshot %s, %d rows)\n", d.Snapshot.Version, d.Snapshot.Rows)
	fmt.Fprintf(&b, "As of %s, today %s\n", d.Filters.AsOfDate, d.Filters.Today)
	fmt.Fprintf(&b, "Origins: %s\n", describeSelection(d.Filters.Origins, d.Filters.AllOrigins))
	fmt.Fprintf(&b, "Owners:  %s\n", describeSelection(d.Filters.Owners, d.Filters.AllOwners))
	fmt.Fprintf(&b, "Matched: %d complaints\n\n", d.FilteredCount)

	fmt.Fprintln(&b, "KPIs")
	fmt.Fprintf(&b, "  Today's Complaints   %d\n", d.KPIs.Todays)
	fmt.Fprintf(&b, "  Last Week            %d\n", d.KPIs.LastWeek)
	fmt.Fprintf(&b, "  Resolved             %d\n", d.KPIs.Resolved)
	fmt.Fprintf(&b, "  Open                 %d\n\n", d.KPIs.Open)

	fmt.Fprintln(&b, "By origin")
	for _, lc := range d.Breakdowns.SortedOrigins() {
		fmt.Fprintf(&b, "  %-20s %d\n", lc.Label, lc.Count)
	}
	fmt.Fprintln(&b, "\nBy status")
	for _, lc := range d.Breakdowns.SortedStatuses() {
		fmt.Fprintf(&b, "  %-20s %d\n", lc.Label, lc.Count)
	}
	fmt.Fprintln(&b, "\nBy day")
	for _, dc := range d.Breakdowns.ByDay {
		fmt.Fprintf(&b, "  %s  %d\n", dc.Date, dc.Count)
	}

	fmt.Fprintln(&b, "\nOwner resolution")
	for i, p := range d.Owners.Visible {
		writeOwnerCard(&b, i+1, p)
	}
	if n := len(d.Owners.More); n > 0 {
		fmt.Fprintf(&b, "  Show more (%d)\n", n)
		for i, p := range d.Owners.More {
			writeOwnerCard(&b, len(d.Owners.Visible)+i+1, p)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeOwnerCard(b *strings.Builder, rank int, p domain.OwnerPerformance) {
	fmt.Fprintf(b, "  %2d. %-20s %5.1f%%  [%s %s]\n", rank, p.Owner, p.Percent, p.ColorTier, p.Color)
	fmt.Fprintf(b, "      ✅ %d of %d resolved, avg %.1f days (%s)\n", p.Resolved, p.Total, p.AvgResolutionDays, p.TimeTier)
}

func describeSelection(values []string, all bool) string {
	if all {
		return domain.AllValues
	}
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}
