package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/goportfolio/internal/adapter/http/dto"
	"github.com/iho/goportfolio/internal/infrastructure/config"
	"github.com/iho/goportfolio/internal/infrastructure/logger"
	"github.com/iho/goportfolio/internal/infrastructure/postgres"
	"github.com/iho/goportfolio/internal/usecase"
)

type options struct {
	baseURL string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "goportfolio-cli",
		Short:         "GoPortfolio CLI tool",
		Long:          `A command line interface for FIFO calculations and the GoPortfolio API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the GoPortfolio API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(fifoCmd(), portfolioCmd(opts), migrateCmd())

	return rootCmd
}

func fifoCmd() *cobra.Command {
	var (
		file      string
		precision int32
	)

	cmd := &cobra.Command{
		Use:   "fifo",
		Short: "Run a FIFO calculation over a JSON trade file",
		Long: `Reads {asset, current_price, currency, trades[], deposits[]} from --file
("-" for stdin) and prints the FIFO result without contacting the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, file)
			if err != nil {
				return err
			}
			defer in.Close()

			var req dto.FIFORequest
			if err := json.NewDecoder(in).Decode(&req); err != nil {
				return fmt.Errorf("decode %s: %w", file, err)
			}

			input, err := req.ToUseCaseInput()
			if err != nil {
				return err
			}

			log := logger.NewWithWriter(logger.Config{Level: "warn", Format: "console"}, cmd.ErrOrStderr())
			fifo := usecase.NewFIFOCalculationService(usecase.CalculationConfig{DivisionPrecision: precision}, log)

			result, err := fifo.Calculate(input.Trades, input.CurrentPrice, input.Deposits)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON input file, - for stdin")
	cmd.Flags().Int32Var(&precision, "precision", usecase.DefaultDivisionPrecision, "Decimal places kept by divisions")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func openInput(cmd *cobra.Command, file string) (io.ReadCloser, error) {
	if file == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(file)
}

func portfolioCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Portfolio operations against the API",
	}

	get := func(use, short, suffix string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return callAPI(cmd, opts, http.MethodGet, "/api/v1/portfolios/"+args[0]+suffix)
			},
		}
	}

	recalculate := &cobra.Command{
		Use:   "recalculate <id>",
		Short: "Rebuild a portfolio from its stored trade history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return callAPI(cmd, opts, http.MethodPost, "/api/v1/portfolios/"+args[0]+"/recalculate")
		},
	}

	cmd.AddCommand(
		get("summary", "Show the portfolio summary", "/summary"),
		get("holdings", "Show holdings, largest allocation first", "/holdings"),
		recalculate,
	)

	return cmd
}

// callAPI performs a request and pretty-prints the JSON response.
func callAPI(cmd *cobra.Command, opts *options, method, path string) error {
	req, err := http.NewRequestWithContext(cmd.Context(), method, strings.TrimRight(opts.baseURL, "/")+path, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: opts.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("request failed (status %d): %s: %s", resp.StatusCode, apiErr.Error, apiErr.Message)
		}
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return printJSON(cmd.OutOrStdout(), payload)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	run := func(up bool) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: "console"}, cmd.ErrOrStderr())
			m := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, log)
			if up {
				return m.Up()
			}
			return m.Down()
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(true)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", RunE: run(false)},
	)

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
