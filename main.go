package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	alertpostgres "predictive-maintenance/internal/alerts/infrastructure/postgres"
	"predictive-maintenance/internal/alerts/notify"
	"predictive-maintenance/internal/alerts/sink"
	apihttp "predictive-maintenance/internal/api/http"
	"predictive-maintenance/internal/config"
	"predictive-maintenance/internal/detection/application"
	detection "predictive-maintenance/internal/detection/domain"
	"predictive-maintenance/internal/eventing"
	"predictive-maintenance/internal/insights"
	"predictive-maintenance/internal/observability/metrics"
	sensors "predictive-maintenance/internal/sensors/domain"
	"predictive-maintenance/internal/sensors/ingest"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	metrics.Init()

	store, err := detection.NewWindowStore(cfg.WindowSize)
	if err != nil {
		logger.Fatalf("window store error: %v", err)
	}
	classifier, err := detection.NewClassifier(cfg.Thresholds)
	if err != nil {
		logger.Fatalf("classifier error: %v", err)
	}

	bus := eventing.NewInMemoryBus()

	memory, err := sink.NewMemory(cfg.RecentAlerts)
	if err != nil {
		logger.Fatalf("memory sink error: %v", err)
	}
	busSink, err := sink.NewBus(bus)
	if err != nil {
		logger.Fatalf("bus sink error: %v", err)
	}
	sinks := []sink.Emitter{memory, busSink}

	csvSink, err := sink.NewCSVFileSink(cfg.AlertsCSVPath)
	if err != nil {
		logger.Fatalf("csv sink error: %v", err)
	}
	defer csvSink.Close()
	sinks = append(sinks, csvSink)

	jsonlSink, err := sink.NewJSONLFileSink(cfg.AlertsJSONLPath)
	if err != nil {
		logger.Fatalf("jsonl sink error: %v", err)
	}
	defer jsonlSink.Close()
	sinks = append(sinks, jsonlSink)

	if cfg.NATSURL != "" {
		natsSink, err := sink.NewNATS(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			logger.Fatalf("nats sink error: %v", err)
		}
		defer natsSink.Close()
		sinks = append(sinks, natsSink)
		logger.Printf("event=nats_sink_enabled subject=%s", cfg.NATSSubject)
	}

	var archive apihttp.AlertArchive
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		repo := alertpostgres.NewAlertRepository(db)
		sinks = append(sinks, repo)
		archive = repo
		logger.Printf("event=postgres_sink_enabled")
	}

	runner, err := application.NewRunner(store, classifier, sink.NewMulti(sinks...),
		application.WithLogger(logger),
		application.WithWorkers(cfg.Workers),
		application.WithRejectHandler(func(r sensors.Reading, err error) {
			logger.Printf("event=reading_rejected machine_id=%d error=%v", r.MachineID, err)
		}),
	)
	if err != nil {
		logger.Fatalf("runner error: %v", err)
	}

	if cfg.WebhookURL != "" {
		channel, err := notify.NewWebhookChannel(cfg.WebhookURL)
		if err != nil {
			logger.Fatalf("webhook channel error: %v", err)
		}
		notifier, err := notify.NewNotifier(channel, "", notify.WithLogger(logger))
		if err != nil {
			logger.Fatalf("notifier error: %v", err)
		}
		eventing.SubscribeTo(bus, notifier.HandleAlertRaised)
		logger.Printf("event=webhook_notifier_enabled")
	}

	broker := apihttp.NewSSEBroker()
	eventing.SubscribeTo(bus, broker.HandleAlertRaised)

	var insightOpts []insights.ServiceOption
	if model := trainFailureModel(cfg.TrainingDataPath, logger); model != nil {
		insightOpts = append(insightOpts, insights.WithFailureModel(model))
	}
	insightService, err := insights.NewService(cfg.Thresholds, insightOpts...)
	if err != nil {
		logger.Fatalf("insights service error: %v", err)
	}

	if _, err := os.Stat(cfg.SensorDataPath); err == nil {
		go replaySensorData(runner, cfg, logger)
	} else {
		logger.Printf("event=sensor_data_missing path=%s", cfg.SensorDataPath)
	}

	ingestHandler, err := apihttp.NewIngestHandler(runner)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/statistics", apihttp.NewStatisticsHandler(store, memory))
	mux.Handle("/api/v1/alerts/recent", apihttp.NewRecentAlertsHandler(memory, archive, 50))
	mux.Handle("/api/v1/alerts/stream", apihttp.NewStreamHandler(broker))
	mux.Handle("/api/v1/machines/", apihttp.NewMachineHandler(store, memory, insightService))
	mux.Handle("/api/v1/readings", ingestHandler)
	mux.Handle("/api/v1/export/", apihttp.NewExportHandler(store, memory, insightService))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", apihttp.HealthHandler{})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(mux, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

// trainFailureModel fits the logistic model from a labeled dataset when one
// is present; without it the engine reports no failure probabilities.
func trainFailureModel(path string, logger *log.Logger) *insights.FailureModel {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		logger.Printf("event=training_data_missing path=%s", path)
		return nil
	}
	samples, err := insights.LoadSamplesFile(path)
	if err != nil {
		logger.Printf("event=training_data_error path=%s error=%v", path, err)
		return nil
	}
	model, err := insights.TrainFailureModel(samples)
	if err != nil {
		logger.Printf("event=failure_model_disabled error=%v", err)
		return nil
	}
	logger.Printf("event=failure_model_trained samples=%d", len(samples))
	return model
}

// replaySensorData streams the configured CSV file through the runner in
// chunks, pacing each chunk the way a live feed would arrive.
func replaySensorData(runner *application.Runner, cfg config.Config, logger *log.Logger) {
	result, err := ingest.ReadFile(cfg.SensorDataPath)
	if err != nil {
		logger.Printf("event=sensor_data_error path=%s error=%v", cfg.SensorDataPath, err)
		return
	}
	for _, rowErr := range result.Skipped {
		logger.Printf("event=row_skipped line=%d error=%v", rowErr.Line, rowErr.Err)
	}
	summary, err := runner.RunChunked(context.Background(), result.Readings, cfg.ChunkSize, cfg.ChunkDelay)
	if err != nil {
		logger.Printf("event=replay_aborted error=%v", err)
		return
	}
	logger.Printf("event=replay_complete processed=%d anomalies=%d rejected=%d sink_errors=%d chunks=%d duration=%s",
		summary.Processed, summary.Anomalies, summary.Rejected, summary.SinkErrors, summary.Chunks, summary.Duration)
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
