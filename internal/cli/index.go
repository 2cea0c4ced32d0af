package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/utafrali/TranscriptSearch/internal/app"
	"github.com/utafrali/TranscriptSearch/internal/config"
	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/internal/event"
	"github.com/utafrali/TranscriptSearch/internal/ingest"
	"github.com/utafrali/TranscriptSearch/internal/service"
	pkgkafka "github.com/utafrali/TranscriptSearch/pkg/kafka"
	"github.com/utafrali/TranscriptSearch/pkg/logger"
)

type indexOptions struct {
	file      string
	batchSize int
	publish   bool
	recreate  bool
}

func newIndexCommand() *cobra.Command {
	opts := &indexOptions{}
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Bulk-index a Common Voice transcription CSV",
		Long: "Reads a CSV with a generated_text column (plus optional filename, age, gender,\n" +
			"accent and duration columns), creates the index if needed and bulk-indexes every\n" +
			"row. With --publish, rows are sent as transcription.created events instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", os.Getenv("FILEPATH"), "CSV file to index (defaults to $FILEPATH)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", ingest.DefaultBatchSize, "records per bulk request")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "publish events to Kafka instead of writing to the index")
	cmd.Flags().BoolVar(&opts.recreate, "recreate", false, "drop and recreate the index before loading")
	cmd.MarkFlagsMutuallyExclusive("publish", "recreate")
	return cmd
}

func runIndex(cmd *cobra.Command, opts *indexOptions) error {
	if opts.file == "" {
		return errors.New("index: --file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(app.ServiceName, cfg.LogLevel, cmd.ErrOrStderr())

	f, err := os.Open(opts.file)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer func() { _ = f.Close() }()

	ctx, cancel := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var sink ingest.Sink
	if opts.publish {
		if len(cfg.KafkaBrokers) == 0 {
			return errors.New("index: --publish requires KAFKA_BROKERS")
		}
		producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), log)
		defer func() { _ = producer.Close() }()
		sink = ingest.PublishSink(event.NewPublisher(producer))
	} else {
		backend, err := app.NewBackend(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = backend.Close() }()

		prepare := backend.EnsureIndex
		if opts.recreate {
			prepare = backend.RecreateIndex
		}
		if err := prepare(ctx); err != nil {
			return fmt.Errorf("index: %w", err)
		}
		svc := service.NewSearchService(backend.Transport, backend.Engine, backend.StaticConfig, log)
		sink = ingest.SinkFunc(func(ctx context.Context, batch []domain.Transcription) (*domain.BulkResult, error) {
			return svc.BulkIndexRecords(ctx, batch)
		})
	}

	stats, err := ingest.NewIngester(sink, opts.batchSize, log).Run(ctx, f)
	if err != nil {
		log.Error("ingest stopped", slog.String("error", err.Error()), slog.Int("read", stats.Read))
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents with %d failures.\n", stats.Indexed, stats.Failed)
	return err
}
