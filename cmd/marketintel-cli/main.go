package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"marketintel/internal/analysis"
	"marketintel/internal/config"
	"marketintel/internal/domain"
	"marketintel/internal/ranking"
	"marketintel/internal/render"
	"marketintel/internal/util"
	"marketintel/pkg/marketintel"
)

const version = "0.1.0"

// app holds what every subcommand needs once flags are parsed.
type app struct {
	cfgPath  string
	baseURL  string
	logLevel string

	cfg    *config.Config
	client *marketintel.Client
	logger *slog.Logger
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(a.cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.baseURL != "" {
		cfg.Service.BaseURL = a.baseURL
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = util.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	a.client = marketintel.NewClient(cfg.Service.BaseURL,
		marketintel.WithTimeout(cfg.Service.Timeout),
		marketintel.WithLogger(a.logger),
	)
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "marketintel-cli",
		Short: "Query the market intelligence analysis service",
		Long: `Query the market intelligence analysis service from the command line.

Examples:
  marketintel-cli tickers
  marketintel-cli search apple
  marketintel-cli analyze AAPL --chart aapl.png`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", defaultConfigPath(), "Config file path")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "Service base URL (overrides config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug|info|warn|error)")

	root.AddCommand(
		newVersionCmd(),
		newStatusCmd(a),
		newTickersCmd(a),
		newSearchCmd(a),
		newAnalyzeCmd(a),
	)
	return root
}

func defaultConfigPath() string {
	if p := os.Getenv("MARKETINTEL_CONFIG"); p != "" {
		return p
	}
	return "config/marketintel.yaml"
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "marketintel-cli %s\n", version)
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show analysis service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.client.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("checking status: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", st.Service, st.Status, a.client.BaseURL())
			return nil
		},
	}
}

func newTickersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tickers",
		Short: "List the tickers the service can analyze",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols, err := a.client.Tickers(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing tickers: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, s := range symbols {
				fmt.Fprintln(out, s)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d tickers\n", len(symbols))
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search analyzable assets by symbol or name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			cands, err := a.client.Search(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("searching %q: %w", query, err)
			}
			if len(cands) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SYMBOL\tNAME\tEXCHANGE\tTYPE")
			for _, c := range cands {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Symbol, c.Name, c.Exchange, c.Type)
			}
			return tw.Flush()
		},
	}
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		chartPath string
		asJSON    bool
		width     int
	)
	cmd := &cobra.Command{
		Use:   "analyze <ticker>",
		Short: "Run an explainability analysis for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := analysis.NewController(a.client, a.logger)
			ticker := strings.ToUpper(strings.TrimSpace(args[0]))
			if err := ctrl.Run(cmd.Context(), ticker); err != nil {
				return fmt.Errorf("analyzing %s: %s", ticker, analysis.Message(err))
			}
			res := ctrl.Snapshot().Result
			if res == nil {
				return fmt.Errorf("analyzing %s: %s", ticker, analysis.FallbackMessage)
			}

			if chartPath != "" {
				bars := ranking.Bars(ranking.Rank(res.BullishArgs, res.BearishArgs, a.cfg.Display.TopImpacts))
				png, err := render.RenderImpactPNG(res.Ticker+" feature impact", bars)
				if err != nil {
					return fmt.Errorf("rendering chart: %w", err)
				}
				if err := os.WriteFile(chartPath, png, 0o644); err != nil {
					return fmt.Errorf("writing chart: %w", err)
				}
				a.logger.Info("chart written", "ticker", res.Ticker, "path", chartPath)
			}

			return writeResult(cmd.OutOrStdout(), res, asJSON, width, a.cfg.Display.TopImpacts)
		},
	}
	cmd.Flags().StringVar(&chartPath, "chart", "", "Write a PNG impact chart to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw analysis as JSON")
	cmd.Flags().IntVar(&width, "width", 100, "Report width in columns")
	return cmd
}

func writeResult(w io.Writer, res *domain.AnalysisResult, asJSON bool, width, limit int) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err := fmt.Fprintln(w, render.Report(res, width, limit))
	return err
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
