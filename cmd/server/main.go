package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatepass/internal/attendance"
	"gatepass/internal/audit"
	dlhandler "gatepass/internal/deadletter/handler"
	dlservice "gatepass/internal/deadletter/service"
	dlstore "gatepass/internal/deadletter/store"
	"gatepass/internal/importer"
	"gatepass/internal/ingest"
	pstore "gatepass/internal/participant/store"
	"gatepass/internal/platform/config"
	"gatepass/internal/platform/database"
	"gatepass/internal/platform/httpserver"
	"gatepass/internal/platform/logger"
	"gatepass/internal/platform/metrics"
	"gatepass/internal/ticket"
	httptransport "gatepass/internal/transport/http"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal service packages.
func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		participants interface {
			ingest.ParticipantStore
			attendance.ParticipantStore
			dlservice.ParticipantStore
		}
		deadletters interface {
			ingest.DeadLetterStore
			dlservice.Store
		}
	)
	if cfg.DatabaseURL != "" {
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Error("migrations failed", "error", err.Error())
			os.Exit(1)
		}
		pool, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("database connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer pool.Close()
		participants = pstore.NewPostgres(pool)
		deadletters = dlstore.NewPostgres(pool)
		log.Info("using postgres stores")
	} else {
		participants = pstore.NewMemory()
		deadletters = dlstore.NewMemory()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	var auditor audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer kafka.Close()
		auditor = kafka
		log.Info("audit events publishing to kafka", "topic", cfg.AuditTopic)
	}

	m := metrics.New()
	codec := ticket.NewCodec(cfg.TicketSecret)

	pipeline := ingest.NewPipeline(participants, deadletters,
		ingest.WithLogger(log),
		ingest.WithMetrics(m),
		ingest.WithAuditPublisher(auditor),
	)
	attendanceSvc := attendance.New(participants, codec,
		attendance.WithLogger(log),
		attendance.WithMetrics(m),
		attendance.WithAuditPublisher(auditor),
	)
	triageSvc := dlservice.New(deadletters, participants,
		dlservice.WithLogger(log),
		dlservice.WithMetrics(m),
		dlservice.WithAuditPublisher(auditor),
	)
	importSvc := importer.New(participants,
		importer.WithLogger(log),
		importer.WithMetrics(m),
		importer.WithAuditPublisher(auditor),
	)

	router := httptransport.NewRouter(log,
		ingest.NewHandler(pipeline, log, cfg.WebhookToken),
		attendance.NewHandler(attendanceSvc, log),
		dlhandler.New(triageSvc, log),
		importer.NewHandler(importSvc, log),
		ticket.NewHandler(codec, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
