// Command inkwell runs the ingestion pipeline: the HTTP boundary, the
// worker tick loop, and the stale-claim reaper, together in one process.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/inkwell-run/ingestor/internal/api"
	"github.com/inkwell-run/ingestor/internal/api/handlers"
	"github.com/inkwell-run/ingestor/internal/domain/ingestion"
	"github.com/inkwell-run/ingestor/internal/infra/config"
	"github.com/inkwell-run/ingestor/internal/infra/eventbus"
	"github.com/inkwell-run/ingestor/internal/infra/extract"
	"github.com/inkwell-run/ingestor/internal/infra/logging"
	"github.com/inkwell-run/ingestor/internal/infra/metrics"
	"github.com/inkwell-run/ingestor/internal/infra/provider"
	"github.com/inkwell-run/ingestor/internal/infra/sqlite"
	"github.com/inkwell-run/ingestor/internal/server"
	"github.com/inkwell-run/ingestor/internal/version"
	"github.com/inkwell-run/ingestor/internal/worker"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	if len(args) > 0 && args[0] == "serve" {
		return runServe(args[1:], out)
	}

	fs := flag.NewFlagSet("inkwell", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	fmt.Fprintln(out, version.String()) //nolint:errcheck
	return 0
}

func printHelp(out io.Writer) {
	helpText := `inkwell - asynchronous document ingestion pipeline

Usage:
  inkwell [options]
  inkwell serve

Options:
  --version    Show version information
  --help       Show this help message`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}

// logJobLifecycle subscribes to the worker's job-lifecycle topics and logs
// each event at debug level. It is the only in-process consumer of the
// event bus for now; external consumers would subscribe the same way.
func logJobLifecycle(bus *eventbus.Bus, log *zap.Logger) {
	topics := []string{worker.TopicJobClaimed, worker.TopicJobCompleted, worker.TopicJobFailed, worker.TopicJobRetried}
	for _, topic := range topics {
		ch := bus.Subscribe(topic)
		go func(topic string, ch <-chan eventbus.Event) {
			for evt := range ch {
				log.Debug("job lifecycle event", zap.String("topic", topic), zap.Any("jobId", evt.Payload))
			}
		}(topic, ch)
	}
}

func runServe(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "config load failed: %v\n", err) //nolint:errcheck
		return 1
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(out, "logger init failed: %v\n", err) //nolint:errcheck
		return 1
	}
	defer log.Sync() //nolint:errcheck

	db, err := sqlite.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Error("db init failed", zap.Error(err))
		return 1
	}
	if err := sqlite.MigrateUp(db); err != nil {
		log.Error("migrations failed", zap.Error(err))
		_ = db.Close()
		return 1
	}
	defer db.Close() //nolint:errcheck

	store := ingestion.NewStore(db)
	queue := ingestion.NewQueue(store)

	extractor := extract.New()
	structurer, err := provider.NewStructurer(cfg.StructurerProvider, provider.StructurerConfig{
		BaseURL:      cfg.StructurerBaseURL,
		Model:        cfg.StructurerModel,
		Mode:         cfg.StructurerMode,
		Temperature:  cfg.StructurerTemperature,
		NumCtx:       cfg.StructurerNumCtx,
		MaxTokens:    cfg.StructurerMaxTokens,
		APIKey:       cfg.StructurerAPIKey,
		RateLimitRPS: cfg.StructurerRateLimitRPS,
	}, extractor)
	if err != nil {
		log.Error("structurer init failed", zap.Error(err))
		return 1
	}

	embedder, err := provider.NewEmbedder(cfg.EmbeddingProvider, provider.EmbedderConfig{
		BaseURL:      cfg.EmbedderBaseURL,
		Model:        cfg.EmbedderModel,
		APIKey:       cfg.EmbedderAPIKey,
		RateLimitRPS: cfg.EmbedderRateLimitRPS,
	})
	if err != nil {
		log.Error("embedder init failed", zap.Error(err))
		return 1
	}

	processor := ingestion.NewProcessor(queue, store, structurer, embedder, cfg.StoredFilesRoot)

	m := metrics.New(prometheus.DefaultRegisterer)

	bus := eventbus.New()
	logJobLifecycle(bus, log)

	w := worker.New(worker.Config{
		PollInterval:  cfg.WorkerPollInterval,
		DBWaitTimeout: cfg.WorkerDBWaitTimeout,
		DBWaitPoll:    cfg.WorkerDBWaitPoll,
	}, queue, processor, db, log, m, bus)

	reaper := ingestion.NewReaper(store, time.Duration(cfg.StaleClaimMinutes)*time.Minute, log)
	if err := reaper.Start(cfg.StaleClaimCron); err != nil {
		log.Error("reaper start failed", zap.Error(err))
		return 1
	}

	ingestHandler := handlers.NewIngestHandler(ingestion.NewEnqueue(store))
	statusHandler := handlers.NewStatusHandler(ingestion.NewStatus(store))
	router := api.NewRouter(ingestHandler, statusHandler, nil)

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.ServerHost
	srvCfg.Port = cfg.ServerPort
	srv := server.NewServer(router, srvCfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w.Start(ctx)

	if err := srv.Start(ctx); err != nil {
		log.Error("server failed", zap.Error(err))
		w.Stop(context.Background())
		reaper.Stop()
		return 1
	}

	w.Stop(context.Background())
	reaper.Stop()
	return 0
}
