package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/victoralfred/retail_analytics/internal/app"
	"github.com/victoralfred/retail_analytics/internal/client"
	"github.com/victoralfred/retail_analytics/internal/config"
	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
	"github.com/victoralfred/retail_analytics/internal/handlers"
	"github.com/victoralfred/retail_analytics/internal/logging"
)

type options struct {
	configPath string
	inputPath  string
	output     string
	cacheKey   string
	locale     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run retail portfolio analytics from the command line",
		Long: `analyze computes portfolio analytics (KPIs, risk, cash flow, billing,
delinquency and more) over JSON records, either in process or through a
Redis-backed worker.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("ANALYTICS_CONFIG"), "path to the YAML configuration file")

	runCmd := &cobra.Command{
		Use:   "run <operation>",
		Short: "Run one operation over a JSON payload",
		Example: `  analyze run calculate-kpis -f portfolio.json
  cat budget.json | analyze run PROCESS_BUDGET -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts, args[0])
		},
	}
	runCmd.Flags().StringVarP(&opts.inputPath, "file", "f", "-", "payload file, - for stdin")
	runCmd.Flags().StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")
	runCmd.Flags().StringVar(&opts.cacheKey, "cache-key", "", "cache the result under this key")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print a portfolio summary for billing, delinquency and movement records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, opts)
		},
	}
	reportCmd.Flags().StringVarP(&opts.inputPath, "file", "f", "-", "records file, - for stdin")
	reportCmd.Flags().StringVar(&opts.locale, "locale", "pt-BR", "pt-BR or en-US")

	operationsCmd := &cobra.Command{
		Use:   "operations",
		Short: "List the supported operations",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, kind := range analytics.AllOperations() {
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimPrefix(handlers.OperationPath(kind), "/v1/analytics/"))
			}
		},
	}

	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume the Redis request queue until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd, opts)
		},
	}

	rootCmd.AddCommand(runCmd, reportCmd, operationsCmd, workerCmd)
	return rootCmd
}

// setup loads configuration and a logger that keeps stdout free for results
func setup(opts *options) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func withEngine(cmd *cobra.Command, opts *options, fn func(ctx context.Context, c *client.Client) error) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	engine, err := app.NewEngine(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	return fn(ctx, engine.Client)
}

func runOperation(cmd *cobra.Command, opts *options, name string) error {
	kind, ok := handlers.ParseOperation(name)
	if !ok {
		return fmt.Errorf("unknown operation %q", name)
	}
	if opts.output != "json" && opts.output != "yaml" {
		return fmt.Errorf("unsupported output format %q", opts.output)
	}

	payload, err := readInput(cmd, opts.inputPath)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	if len(strings.TrimSpace(string(payload))) == 0 {
		payload = []byte(`{}`)
	}
	if !json.Valid(payload) {
		return fmt.Errorf("payload is not valid JSON")
	}

	return withEngine(cmd, opts, func(ctx context.Context, c *client.Client) error {
		var callOpts []client.CallOption
		if opts.cacheKey != "" {
			callOpts = append(callOpts, client.WithCacheKey(opts.cacheKey))
		}
		res, err := c.Run(ctx, kind, payload, callOpts...)
		if err != nil {
			return err
		}
		return writeResult(cmd.OutOrStdout(), opts.output, res.Data)
	})
}

func writeResult(w io.Writer, format string, data json.RawMessage) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runReport(cmd *cobra.Command, opts *options) error {
	raw, err := readInput(cmd, opts.inputPath)
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}
	var records handlers.DashboardRequest
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("invalid records: %w", err)
	}

	return withEngine(cmd, opts, func(ctx context.Context, c *client.Client) error {
		var (
			kpis     analytics.KPIResult
			cashFlow analytics.CashFlowResult
			insights analytics.InsightsResult
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			kpis, err = c.CalculateKPIs(gctx, analytics.KPIPayload{
				Billing:     records.Billing,
				Delinquency: records.Delinquency,
				Movements:   records.Movements,
			})
			return err
		})
		g.Go(func() error {
			var err error
			cashFlow, err = c.ProcessCashFlow(gctx, analytics.CashFlowPayload{Movements: records.Movements, Locale: opts.locale})
			return err
		})
		g.Go(func() error {
			var err error
			insights, err = c.GenerateInsights(gctx, analytics.InsightsPayload{
				Locale:      opts.locale,
				Movements:   records.Movements,
				Delinquency: records.Delinquency,
			})
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		formatted, err := c.FormatMetrics(ctx, analytics.FormatPayload{
			Locale: opts.locale,
			Metrics: []analytics.MetricValue{
				{Name: "Faturado", Value: kpis.TotalBilled, Unit: analytics.UnitCurrency},
				{Name: "Recebido", Value: kpis.TotalPaid, Unit: analytics.UnitCurrency},
				{Name: "Em aberto", Value: kpis.TotalOpen, Unit: analytics.UnitCurrency},
				{Name: "Adimplência", Value: kpis.CollectionRate, Unit: analytics.UnitPercent},
				{Name: "Inadimplência", Value: kpis.DefaultRate, Unit: analytics.UnitPercent},
				{Name: "Ocupação", Value: kpis.Occupancy, Unit: analytics.UnitPercent},
				{Name: "NOI", Value: kpis.NOI, Unit: analytics.UnitCurrency, Compact: true},
				{Name: "Margem NOI", Value: kpis.NOIMargin, Unit: analytics.UnitVariation},
				{Name: "Fluxo líquido", Value: cashFlow.NetTotal, Unit: analytics.UnitCurrency},
			},
		})
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, m := range formatted.Metrics {
			fmt.Fprintf(tw, "%s\t%s\n", m.Name, m.Text)
		}
		if cashFlow.Direction != "" {
			fmt.Fprintf(tw, "Tendência do caixa\t%s\n", cashFlow.Direction)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if len(insights.Insights) == 0 {
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Insights")
		for _, in := range insights.Insights {
			fmt.Fprintf(out, "  [%s] %s\n", in.Priority, in.Title)
			if len(in.Recommendations) > 0 {
				fmt.Fprintf(out, "      %s\n", in.Recommendations[0])
			}
		}
		return nil
	})
}

func runWorker(cmd *cobra.Command, opts *options) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Redis.Addr == "" {
		return fmt.Errorf("the worker requires redis.addr")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := app.NewRedisClient(cfg.Redis)
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}

	return app.ServeRedisWorker(ctx, rdb, cfg, app.NewDispatcher(cfg), logger, nil)
}
