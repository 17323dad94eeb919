// dataseb — Argentine and US macroeconomic data retrieval.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andesdata/dataseb/internal/config"
	"github.com/andesdata/dataseb/internal/infra"
	"github.com/andesdata/dataseb/internal/provider"
	"github.com/andesdata/dataseb/internal/providers"
	"github.com/andesdata/dataseb/internal/series"
	"github.com/andesdata/dataseb/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dataseb",
	Short: "dataseb — Argentine and US macroeconomic series",
	Long: `dataseb retrieves Argentine macroeconomic series (CPI, activity, GDP,
monetary aggregates, exchange rates) from INDEC, the BCRA and bluelytics,
plus long-run local CPI spreadsheets, and derives daily accrual factors
for updating and capitalizing peso amounts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		setupLogging(cfg.Logging)

		if cfg.HTTP.TimeoutSec > 0 {
			infra.SetHTTPTimeout(time.Duration(cfg.HTTP.TimeoutSec) * time.Second)
		}
		if cfg.HTTP.CacheTTLSec > 0 {
			infra.SetCacheTTL(time.Duration(cfg.HTTP.CacheTTLSec) * time.Second)
		}
		if cfg.HTTP.ConcurrentFetches > 0 {
			infra.SetFetchLimit(cfg.HTTP.ConcurrentFetches)
		}
		return providers.RegisterAll(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(accrualCmd)
}

// setupLogging configures the default slog logger from the config.
func setupLogging(lc config.LoggingConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(lc.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dataseb %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Providers Command ---

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered data providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		list := provider.Global().List()
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		for _, info := range list {
			fmt.Printf("%-12s %s\n", info.Name, info.Description)
			p, err := provider.Global().Get(info.Name)
			if err != nil {
				continue
			}
			supported := p.SupportedModels()
			names := make([]string, 0, len(supported))
			for _, m := range supported {
				names = append(names, string(m))
			}
			sort.Strings(names)
			fmt.Printf("%-12s models: %s\n", "", strings.Join(names, ", "))
		}
		return nil
	},
}

// --- Models Command ---

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models and the providers serving them",
	RunE: func(cmd *cobra.Command, args []string) error {
		coverage := provider.Global().ModelCoverage()
		for _, m := range provider.AllModels() {
			provs := coverage[m]
			sort.Strings(provs)
			fmt.Printf("%-24s [%s]  %s\n", m, provider.ModelCategory(m), strings.Join(provs, ", "))
		}
		return nil
	},
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [model]",
	Short: "Fetch a model and print the result as JSON",
	Long: `Fetch one model through the provider registry.

Examples:
  dataseb fetch ConsumerPriceIndex
  dataseb fetch CPIByDivision --param classification=goods_services
  dataseb fetch MonetaryBase --param quasi_money=true --provider bcra
  dataseb fetch OfficialExchangeRate --param frequency=monthly`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model := provider.ModelType(args[0])

		params := provider.QueryParams{}
		pairs, _ := cmd.Flags().GetStringArray("param")
		for _, pair := range pairs {
			key, value, found := strings.Cut(pair, "=")
			if !found {
				return fmt.Errorf("invalid --param %q, expected key=value", pair)
			}
			params[key] = value
		}
		if name, _ := cmd.Flags().GetString("provider"); name != "" {
			params[provider.ParamProvider] = name
		}
		if s, _ := cmd.Flags().GetString("start"); s != "" {
			params[provider.ParamStartDate] = s
		}
		if s, _ := cmd.Flags().GetString("end"); s != "" {
			params[provider.ParamEndDate] = s
		}

		start := time.Now()
		fallback, _ := cmd.Flags().GetBool("fallback")
		var result *provider.FetchResult
		var err error
		if fallback {
			result, err = provider.Global().FetchWithFallback(cmd.Context(), model, params)
		} else {
			result, err = provider.Global().Fetch(cmd.Context(), model, params)
		}
		if err != nil {
			return err
		}
		slog.Info("fetch complete",
			"model", model,
			"provider", result.Provider,
			"cached", result.Cached,
			"elapsed", time.Since(start))

		out, err := json.MarshalIndent(result.Data, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringArray("param", nil, "query parameter as key=value (repeatable)")
	fetchCmd.Flags().String("provider", "", "force a specific provider")
	fetchCmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	fetchCmd.Flags().String("end", "", "end date (YYYY-MM-DD)")
	fetchCmd.Flags().Bool("fallback", false, "try other providers if the default fails")
}

// --- Ping Command ---

var pingCmd = &cobra.Command{
	Use:   "ping [provider]",
	Short: "Check connectivity to one or all providers",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var names []string
		if len(args) == 1 {
			names = args
		} else {
			for _, info := range provider.Global().List() {
				names = append(names, info.Name)
			}
			sort.Strings(names)
		}

		var failed bool
		for _, name := range names {
			p, err := provider.Global().Get(name)
			if err != nil {
				return err
			}
			if err := p.Ping(cmd.Context()); err != nil {
				failed = true
				fmt.Printf("%-12s unreachable: %v\n", name, err)
				continue
			}
			fmt.Printf("%-12s ok\n", name)
		}
		if failed {
			return fmt.Errorf("some providers are unreachable")
		}
		return nil
	},
}

// --- Accrual Command ---

var accrualCmd = &cobra.Command{
	Use:   "accrual",
	Short: "Compute daily update and capitalization factors from a CPI series",
	Long: `Compute daily accrual factors from a monthly CPI series and print
them as CSV. The update factor restates a past peso amount in
end-of-series money; the capitalization factor discounts an
end-of-series amount back in time.

Examples:
  dataseb accrual
  dataseb accrual --model USConsumerPriceIndex
  dataseb accrual --from 2020-01-01 --to 2023-12-31 --tail 30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		modelName, _ := cmd.Flags().GetString("model")
		model := provider.ModelType(modelName)

		params := provider.QueryParams{}
		if s, _ := cmd.Flags().GetString("from"); s != "" {
			params[provider.ParamStartDate] = s
		}
		if s, _ := cmd.Flags().GetString("to"); s != "" {
			params[provider.ParamEndDate] = s
		}

		result, err := provider.Global().Fetch(cmd.Context(), model, params)
		if err != nil {
			return err
		}
		obs, ok := result.Data.([]models.CPIObservation)
		if !ok {
			return fmt.Errorf("model %s does not yield a CPI series", model)
		}

		rows, err := accrualRows(obs)
		if err != nil {
			return err
		}
		if tail, _ := cmd.Flags().GetInt("tail"); tail > 0 && tail < len(rows) {
			rows = rows[len(rows)-tail:]
		}

		return writeAccrualCSV(cmd.OutOrStdout(), rows)
	},
}

func init() {
	accrualCmd.Flags().String("model", string(provider.ModelSplicedCPI), "CPI model to accrue on")
	accrualCmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	accrualCmd.Flags().String("to", "", "end date (YYYY-MM-DD)")
	accrualCmd.Flags().Int("tail", 0, "print only the last N daily rows")
}

// writeAccrualCSV prints accrual rows as CSV, one line per day.
func writeAccrualCSV(out io.Writer, rows []models.AccrualRow) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"date", "index", "inflation", "update_factor", "capitalization_factor"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Date.Format("2006-01-02"),
			strconv.FormatFloat(r.Index, 'f', -1, 64),
			strconv.FormatFloat(r.Inflation, 'f', -1, 64),
			strconv.FormatFloat(r.UpdateFactor, 'f', -1, 64),
			strconv.FormatFloat(r.CapitalizationFactor, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

const (
	colIndex     = "index"
	colInflation = "inflation"
)

// accrualRows expands a monthly CPI series to daily rows and attaches the
// update and capitalization factors.
func accrualRows(obs []models.CPIObservation) ([]models.AccrualRow, error) {
	monthly := series.NewTable()
	for _, o := range obs {
		r := series.NewRow(o.Date)
		r.Values[colIndex] = o.Index
		r.Values[colInflation] = o.Inflation
		monthly.Append(r)
	}
	monthly.SortByDate()

	daily, err := series.ExpandDaily(monthly, colIndex, colInflation)
	if err != nil {
		return nil, err
	}
	if err := series.ComputeAccrual(daily, colIndex, colInflation, series.ColDay, series.ColDaysInMonth); err != nil {
		return nil, err
	}

	rows := make([]models.AccrualRow, 0, daily.Len())
	for i := 0; i < daily.Len(); i++ {
		r := daily.At(i)
		row := models.AccrualRow{
			Date:                 r.Date,
			Index:                r.Values[colIndex],
			Inflation:            r.Values[colInflation],
			UpdateFactor:         r.Values[series.ColUpdateFactor],
			CapitalizationFactor: r.Values[series.ColCapitalizationFactor],
		}
		// The first month has no prior period, so its factors are
		// undefined.
		if math.IsNaN(row.UpdateFactor) || math.IsNaN(row.CapitalizationFactor) {
			continue
		}
		if math.IsNaN(row.Inflation) {
			row.Inflation = 0
		}
		rows = append(rows, row)
	}
	return rows, nil
}
