// Command autoarima selects an ARIMA order for a CSV time series.
package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hnnhvwht/hyndman-khandakar/autoarima"
	"github.com/hnnhvwht/hyndman-khandakar/timeseries"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		column     string
		dateColumn string
		alpha      float64
		maxOrder   int
		minRoot    float64
		fullSearch bool
		forecast   int
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "autoarima [flags] <series.csv>",
		Short: "Automatic ARIMA order selection (Hyndman-Khandakar)",
		Long: `Selects the ARIMA order (p, d, q) and trend for a univariate time series
by estimating the differencing degree with ADF and KPSS unit-root tests and
searching candidate orders for the minimal corrected AIC (AICc).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := autoarima.DefaultConfig()

			if configPath != "" {
				data, err := os.ReadFile(configPath)
				if err != nil {
					return fmt.Errorf("reading config: %w", err)
				}
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return fmt.Errorf("parsing config: %w", err)
				}
			}

			// Flags set explicitly override the config file.
			if cmd.Flags().Changed("alpha") {
				cfg.Alpha = alpha
			}
			if cmd.Flags().Changed("max-order") {
				cfg.MaxOrder = maxOrder
			}
			if cmd.Flags().Changed("min-root-modulus") {
				cfg.MinRootModulus = minRoot
			}
			if cmd.Flags().Changed("full-search") {
				cfg.FullSearch = fullSearch
			}

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			opts := timeseries.DefaultCSVOptions()
			opts.ValueColumn = column
			opts.DateColumn = dateColumn

			series, err := timeseries.LoadCSV(args[0], opts)
			if err != nil {
				return fmt.Errorf("loading series: %w", err)
			}

			result, err := autoarima.Find(series, cfg)
			if err != nil {
				return err
			}

			printResult(cmd, result)

			if forecast > 0 {
				values, err := result.Predict(forecast)
				if err != nil {
					return err
				}
				cmd.Println("\nForecasts:")
				for i, v := range values {
					cmd.Printf("  t+%d: %.4f\n", i+1, v)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVar(&column, "column", "y", "value column name")
	cmd.Flags().StringVar(&dateColumn, "date-column", "", "date column name")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "significance level for unit-root tests")
	cmd.Flags().IntVar(&maxOrder, "max-order", 5, "inclusive upper bound for p and q")
	cmd.Flags().Float64Var(&minRoot, "min-root-modulus", 1.001, "exclusive lower bound for characteristic root moduli")
	cmd.Flags().BoolVar(&fullSearch, "full-search", false, "exhaustive grid search instead of stepwise")
	cmd.Flags().IntVarP(&forecast, "forecast", "f", 0, "number of steps to forecast with the selected model")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log skipped candidates")

	return cmd
}

func printResult(cmd *cobra.Command, result *autoarima.Result) {
	cmd.Printf("Selected model: ARIMA(%d,%d,%d) trend=%s\n",
		result.Order.P, result.Order.D, result.Order.Q, result.Trend)
	if math.IsInf(result.AICc, 1) {
		cmd.Println("AICc: +Inf (no candidate was accepted)")
	} else {
		cmd.Printf("AICc: %.4f\n", result.AICc)
	}
	cmd.Printf("Models evaluated: %d\n", result.ModelsEvaluated)

	degrees := make([]int, 0, len(result.Diagnostics))
	for d := range result.Diagnostics {
		degrees = append(degrees, d)
	}
	sort.Ints(degrees)
	if len(degrees) > 0 {
		cmd.Println("Unit-root tests:")
		for _, d := range degrees {
			pv := result.Diagnostics[d]
			cmd.Printf("  d=%d: ADF p=%.4f, KPSS p=%.4f\n", d, pv.ADF, pv.KPSS)
		}
	}
}
