package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/example/payments-engine/internal/config"
	"github.com/example/payments-engine/internal/ingest"
	"github.com/example/payments-engine/internal/ledger"
	"github.com/example/payments-engine/internal/logging"
	"github.com/example/payments-engine/internal/pipeline"
	"github.com/example/payments-engine/internal/report"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config file.yaml] <input.csv>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return 1
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	runID := uuid.New()
	logger := logging.New(cfg.Log, os.Stderr, runID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := flag.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		logger.Error("failed to open input", "path", path, "error", err)
		return 1
	}
	defer f.Close()

	src, err := ingest.NewReader(bufio.NewReader(f))
	if err != nil {
		logger.Error("failed to read input header", "path", path, "error", err)
		return 1
	}

	engine := ledger.NewEngine()
	summary, err := pipeline.Run(src, engine, logger)
	if err != nil {
		logger.Error("input aborted", "path", path, "rows", summary.Rows, "error", err)
		return 1
	}

	logger.Info("input processed",
		"path", path,
		"rows", summary.Rows,
		"rows_read", src.Rows(),
		"applied", summary.Applied,
		"no_ops", summary.NoOps,
		"parse_errors", summary.ParseErrors,
		"rejected", summary.Rejected,
		"accounts", engine.AccountCount(),
		"transactions", engine.TransactionCount(),
	)

	validator := ledger.NewValidator(engine)
	for _, res := range ledger.Failures(validator.ValidateConsistency()) {
		logger.Warn("consistency check failed",
			"check", res.ValidationType,
			"client", res.Client,
			"message", res.Message,
		)
	}

	if err := writeReport(ctx, cfg.Report, runID, engine.Accounts(), os.Stdout, logger); err != nil {
		logger.Error("failed to write report", "sink", cfg.Report.Sink, "error", err)
		return 1
	}

	return 0
}

// writeReport sends accounts to the configured sink. The csv sink writes to stdout.
func writeReport(ctx context.Context, cfg config.ReportConfig, runID uuid.UUID, accounts []ledger.Account, stdout io.Writer, logger *slog.Logger) error {
	switch cfg.Sink {
	case config.SinkSQLite:
		db, err := report.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := report.NewSQLiteSink(db, cfg.Table, runID, cfg.Timeout).Write(ctx, accounts); err != nil {
			return err
		}
		logger.Info("snapshot stored", "sink", cfg.Sink, "path", cfg.SQLitePath, "table", cfg.Table, "accounts", len(accounts))
		return nil

	case config.SinkPostgres:
		pool, err := report.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := report.NewPostgresSink(pool, cfg.Table, runID, cfg.Timeout).Write(ctx, accounts); err != nil {
			return err
		}
		logger.Info("snapshot stored", "sink", cfg.Sink, "table", cfg.Table, "accounts", len(accounts))
		return nil

	default:
		out := bufio.NewWriter(stdout)
		if err := report.NewCSVSink(out).Write(ctx, accounts); err != nil {
			return err
		}
		return out.Flush()
	}
}
