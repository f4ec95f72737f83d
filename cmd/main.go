package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/sagemaker"
	"github.com/google/uuid"
	"github.com/okian/fsingest/internal/adapters/awssession"
	"github.com/okian/fsingest/internal/adapters/dataset"
	"github.com/okian/fsingest/internal/adapters/export"
	"github.com/okian/fsingest/internal/adapters/featurestore"
	"github.com/okian/fsingest/internal/adapters/http/api"
	"github.com/okian/fsingest/internal/adapters/storage"
	"github.com/okian/fsingest/internal/app"
	"github.com/okian/fsingest/internal/config"
	"github.com/okian/fsingest/internal/domain/model"
	"github.com/okian/fsingest/internal/domain/nullpolicy"
	"github.com/okian/fsingest/internal/domain/prep"
	"github.com/okian/fsingest/internal/domain/record"
	"github.com/okian/fsingest/pkg/logger"
	"github.com/okian/fsingest/pkg/metrics"
	"github.com/spf13/pflag"
)

// Process exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitRejected = 1
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// run executes one batch and returns the process exit code.
func run(ctx context.Context, args []string, out io.Writer) int {
	if err := logger.Init(logger.WithWriter(out)); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		return exitFailure
	}

	flags := config.Flags()
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(os.Stderr, "failed to parse flags:", err)
		return exitFailure
	}

	cfg, err := config.Load(ctx, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return exitFailure
	}
	if err := logger.Init(logger.WithWriter(out), logger.WithFormat(cfg.LogFormat)); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		return exitFailure
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	runID := uuid.NewString()
	log = log.With(logger.String("run_id", runID))
	tracker := app.NewTracker(runID)

	if cfg.StatusAddr != "" {
		status := api.NewServer(tracker)
		if _, err := status.Start(ctx, cfg.StatusAddr); err != nil {
			log.Error(ctx, "starting status server failed", logger.Error(err))
			return exitFailure
		}
		defer func() {
			if err := status.Shutdown(context.Background()); err != nil {
				log.Warn(ctx, "status server shutdown failed", logger.Error(err))
			}
		}()
	}

	tally, err := ingest(ctx, cfg, tracker, log)
	if err != nil {
		tracker.SetPhase(app.PhaseFailed)
	}

	if cfg.MetricsPushURL != "" {
		if perr := metrics.Push(ctx, cfg.MetricsPushURL, cfg.MetricsJob, runID); perr != nil {
			log.Warn(ctx, "pushing metrics failed", logger.Error(perr))
		}
	}

	if err != nil && !errors.Is(err, app.ErrAborted) {
		log.Error(ctx, "batch failed", logger.Error(err))
		return exitFailure
	}
	for _, r := range tally.Rejected {
		log.Warn(ctx, "rejected row", logger.Int("row", r.RowIndex), logger.String("reason", r.Reason))
	}
	log.Info(ctx, "ingestion tally",
		logger.String("feature_group", cfg.FeatureGroup),
		logger.Int("accepted", tally.Accepted),
		logger.Int("rejected", len(tally.Rejected)),
	)
	if err != nil {
		log.Error(ctx, "batch aborted", logger.Error(err))
		return exitFailure
	}
	if len(tally.Rejected) > 0 {
		return exitRejected
	}
	return exitOK
}

// ingest wires the adapters for cfg and runs the batch. The AWS session and
// the feature store client are created once and shared by every row.
func ingest(ctx context.Context, cfg *config.Config, tracker *app.Tracker, log logger.Logger) (model.Tally, error) {
	timeFormat, err := cfg.TimeFormat()
	if err != nil {
		return model.Tally{}, err
	}

	sess, err := newSession(cfg)
	if err != nil {
		return model.Tally{}, err
	}
	store := storage.New(s3.New(sess))

	tracker.SetPhase(app.PhaseReading)
	readerOpts := []dataset.Option{
		dataset.WithEmptyAsNil(cfg.EmptyAsNil),
		dataset.WithLogger(log.Named("dataset")),
	}
	if cfg.RequireOrdered {
		readerOpts = append(readerOpts, dataset.WithRequireOrdered(cfg.TimeAxisColumn))
	}
	ds, err := dataset.NewReader(store, readerOpts...).Read(ctx, cfg.Table)
	if err != nil {
		return model.Tally{}, fmt.Errorf("reading %s: %w", cfg.Table, err)
	}

	preparer := prep.New(
		prep.WithDropColumns(cfg.DropColumns...),
		prep.WithReplacements(cfg.Replacements),
	)
	columns := preparer.Columns(ds.Columns)
	rows := preparer.Rows(ds.Rows)

	if cfg.OutputPath != "" {
		tracker.SetPhase(app.PhaseExporting)
		w := export.NewWriter(store, export.WithLogger(log.Named("export")))
		if _, err := w.Export(ctx, cfg.OutputPath, columns, rows); err != nil {
			return model.Tally{}, fmt.Errorf("exporting processed features: %w", err)
		}
	}

	if cfg.VerifyFeatureGroup {
		if err := featurestore.VerifyGroup(ctx, sagemaker.New(sess), cfg.FeatureGroup); err != nil {
			return model.Tally{}, err
		}
	}

	client := featurestore.New(sess,
		featurestore.WithTimeout(cfg.RequestTimeout()),
		featurestore.WithLogger(log.Named("featurestore")),
	)
	builder := record.NewBuilder(
		record.WithTimeAxisColumn(cfg.TimeAxisColumn),
		record.WithTimeFormat(timeFormat),
		record.WithNullPolicy(nullpolicy.New(nullpolicy.WithCaseFold(cfg.NullCaseFold))),
	)
	ingestor := app.New(client,
		app.WithBuilder(builder),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithFailFast(cfg.FailFast),
		app.WithMaxConsecutiveRejections(cfg.MaxConsecutiveRejections),
		app.WithRunID(tracker.RunID()),
		app.WithTracker(tracker),
		app.WithLogger(logger.Named("ingestor")),
	)
	return ingestor.IngestAll(ctx, rows, columns, cfg.FeatureGroup)
}

func newSession(cfg *config.Config) (*session.Session, error) {
	return awssession.New(
		awssession.WithRegion(cfg.Region),
		awssession.WithProfile(cfg.Profile),
		awssession.WithEndpoint(cfg.Endpoint),
		awssession.WithHTTPTimeout(cfg.RequestTimeout()),
	)
}
