package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/vitals/internal/config"
	"github.com/Dicklesworthstone/vitals/internal/errors"
	"github.com/Dicklesworthstone/vitals/internal/model"
	"github.com/Dicklesworthstone/vitals/internal/store"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTailCmd(load loadFunc) *cobra.Command {
	var (
		n      int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the newest stored samples",
		Long: `Print the newest rows of the measurements store, oldest first.
Readings that were unavailable when sampled print as N/A.

Examples:
  vitals tail
  vitals tail -n 50 --db /var/lib/vitals/monitor.db
  vitals tail --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return tailCommand(cmd.Context(), cmd.OutOrStdout(), cfg.DB, n, asJSON)
		},
	}
	cmd.Flags().IntVarP(&n, "lines", "n", 10, "number of rows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	return cmd
}

func newSummaryCmd(load loadFunc) *cobra.Command {
	var since time.Duration
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print count, average and peak per metric",
		Long: `Aggregate stored samples per metric. Unavailable readings are left out of
the count and average rather than treated as zero.

Examples:
  vitals summary
  vitals summary --since 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			return summaryCommand(cmd.Context(), cmd.OutOrStdout(), cfg.DB, from)
		},
	}
	cmd.Flags().DurationVar(&since, "since", 0, "only rows newer than this (0 = all)")
	return cmd
}

func newConfigCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return writeConfig(cmd.OutOrStdout(), cfg)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "vitals %s\n", version)
			fmt.Fprintf(w, "commit: %s\n", commit)
			fmt.Fprintf(w, "built: %s\n", date)
			fmt.Fprintf(w, "go: %s\n", runtime.Version())
		},
	}
}

// tailRow is the JSON shape of one stored sample. Absent readings are null.
type tailRow struct {
	ID             int64    `json:"id"`
	CapturedAt     string   `json:"captured_at"`
	CPUPercent     float64  `json:"cpu_percent"`
	RAMPercent     float64  `json:"ram_percent"`
	GPULoadPercent *float64 `json:"gpu_load_percent"`
	GPUTempC       *float64 `json:"gpu_temp_c"`
	CPUTempC       *float64 `json:"cpu_temp_c"`
}

func tailCommand(ctx context.Context, w io.Writer, path string, n int, asJSON bool) error {
	if n < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Row count must be positive, got %d", n),
			"Pass -n with a value of at least 1")
	}
	st, err := store.OpenReadOnly(ctx, path)
	if err != nil {
		return err
	}
	defer st.Close()

	recs, err := st.Recent(ctx, n)
	if err != nil {
		return err
	}

	if asJSON {
		rows := make([]tailRow, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, tailRow{
				ID:             r.ID,
				CapturedAt:     r.CapturedAt.Format(time.RFC3339),
				CPUPercent:     r.CPUPercent,
				RAMPercent:     r.RAMPercent,
				GPULoadPercent: r.GPULoadPercent.Ptr(),
				GPUTempC:       r.GPUTempC.Ptr(),
				CPUTempC:       r.CPUTempC.Ptr(),
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(recs) == 0 {
		fmt.Fprintf(w, "No samples in %s\n", path)
		return nil
	}

	headers := []string{"ID", "Captured"}
	for _, m := range model.Metrics {
		headers = append(headers, m.Label())
	}
	t := newTable(headers...)
	for _, r := range recs {
		row := []string{strconv.FormatInt(r.ID, 10), r.CapturedAt.Format("2006-01-02 15:04:05")}
		for _, m := range model.Metrics {
			row = append(row, m.Format(m.Value(r.Sample)))
		}
		t.Row(row...)
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

func summaryCommand(ctx context.Context, w io.Writer, path string, since time.Time) error {
	st, err := store.OpenReadOnly(ctx, path)
	if err != nil {
		return err
	}
	defer st.Close()

	sum, err := st.Summarize(ctx, since)
	if err != nil {
		return err
	}

	window := "all time"
	if !since.IsZero() {
		window = "since " + since.Format("2006-01-02 15:04:05")
	}
	fmt.Fprintf(w, "%d samples, %s\n", sum.Rows, window)
	if sum.Rows == 0 {
		return nil
	}

	t := newTable("Metric", "Readings", "Avg", "Max")
	for _, a := range sum.Metrics {
		t.Row(a.Metric.Label(), strconv.FormatInt(a.Count, 10), a.Metric.Format(a.Avg), a.Metric.Format(a.Max))
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

func writeConfig(w io.Writer, cfg config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
	}
	return enc.Close()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
