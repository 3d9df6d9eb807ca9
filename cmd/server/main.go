// Command server runs the opsgov API: governed operations, workspaces,
// identity, CRM records, and the audit trail behind one HTTP listener.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"opsgov/internal/audit"
	audithandler "opsgov/internal/audit/handler"
	auditpublisher "opsgov/internal/audit/publisher"
	auditmemory "opsgov/internal/audit/store/memory"
	auditpostgres "opsgov/internal/audit/store/postgres"
	"opsgov/internal/governance"
	governancemetrics "opsgov/internal/governance/metrics"
	"opsgov/internal/identity"
	identityhandler "opsgov/internal/identity/handler"
	identitymetrics "opsgov/internal/identity/metrics"
	identitymemory "opsgov/internal/identity/store/memory"
	identitypostgres "opsgov/internal/identity/store/postgres"
	"opsgov/internal/integration/workflow"
	"opsgov/internal/jwttoken"
	"opsgov/internal/lead"
	leadhandler "opsgov/internal/lead/handler"
	leadmemory "opsgov/internal/lead/store/memory"
	leadpostgres "opsgov/internal/lead/store/postgres"
	"opsgov/internal/machine"
	machinehandler "opsgov/internal/machine/handler"
	machinememory "opsgov/internal/machine/store/memory"
	machinepostgres "opsgov/internal/machine/store/postgres"
	"opsgov/internal/operation"
	operationhandler "opsgov/internal/operation/handler"
	operationmetrics "opsgov/internal/operation/metrics"
	operationmemory "opsgov/internal/operation/store/memory"
	operationpostgres "opsgov/internal/operation/store/postgres"
	"opsgov/internal/platform/config"
	"opsgov/internal/platform/httpserver"
	"opsgov/internal/platform/logger"
	"opsgov/internal/platform/postgres"
	"opsgov/internal/platform/redis"
	"opsgov/internal/security"
	securityhandler "opsgov/internal/security/handler"
	securitymemory "opsgov/internal/security/store/memory"
	securitypostgres "opsgov/internal/security/store/postgres"
	"opsgov/internal/task"
	taskhandler "opsgov/internal/task/handler"
	taskmemory "opsgov/internal/task/store/memory"
	taskpostgres "opsgov/internal/task/store/postgres"
	httptransport "opsgov/internal/transport/http"
	"opsgov/internal/workspace"
	workspacehandler "opsgov/internal/workspace/handler"
	workspacememory "opsgov/internal/workspace/store/memory"
	workspacepostgres "opsgov/internal/workspace/store/postgres"
	"opsgov/pkg/platform/middleware/ratelimit"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		log.Info("postgres connected")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	var publisher audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := auditpublisher.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("kafka publisher init failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		if err := kafka.EnsureTopic(ctx); err != nil {
			log.Warn("audit topic check failed, continuing", "error", err)
		}
		publisher = kafka
		log.Info("audit fan-out enabled", "topic", cfg.Kafka.Topic)
	}

	stores := buildStores(db)
	recorder := audit.NewRecorder(stores.audit, publisher, log, 256)
	history := redis.NewCachedHistory(redisClient, recorder, log)
	recorder.SetInvalidator(history)
	go func() {
		if err := recorder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()
	governanceMetrics := governancemetrics.New()
	engine := governance.NewService(history, governance.Thresholds{
		High:      cfg.Governance.HighThreshold,
		Critical:  cfg.Governance.CriticalThreshold,
		AutoBlock: cfg.Governance.AutoBlock,
	}, log, governanceMetrics)

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "opsgov", "opsgov-api")
	identityService := identity.NewService(stores.users, tokens, recorder, cfg.AccessTokenTTL, log, identitymetrics.New())
	workspaceService := workspace.NewService(stores.workspaces, recorder, log)
	gatherer := governance.NewGatherer(workspaceService, identityService, log, governanceMetrics)

	workflowClient := workflow.New(cfg.Workflow, log)
	operationService := operation.NewService(stores.operations, engine, gatherer, recorder, workflowClient, log, operationmetrics.New())
	leadService := lead.NewService(stores.leads, recorder, log)
	taskService := task.NewService(stores.tasks, recorder, log)
	machineService := machine.NewService(stores.machines, recorder, log)
	securityService := security.NewService(stores.securityEvents, recorder, log)

	var limitStore ratelimit.Store = ratelimit.NewMemoryStore()
	if redisClient != nil {
		limitStore = ratelimit.NewRedisStore(redisClient)
	}
	loginLimiter := ratelimit.New(limitStore, loginRateLimit, loginRateWindow, log)

	router := httptransport.New(httptransport.Handlers{
		Identity:  identityhandler.New(identityService, log),
		Workspace: workspacehandler.New(workspaceService, log),
		Operation: operationhandler.New(operationService, log),
		Lead:      leadhandler.New(leadService, log),
		Task:      taskhandler.New(taskService, log),
		Machine:   machinehandler.New(machineService, log),
		Security:  securityhandler.New(securityService, log),
		Audit:     audithandler.New(recorder, log),
		Workflow:  workflow.NewHandler(workflowClient, log),
	}, tokens, identityService, loginLimiter, log)

	server := httpserver.New(cfg.Addr, router)
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

type stores struct {
	audit          audit.Store
	users          identity.Store
	workspaces     workspace.Store
	operations     operation.Store
	leads          lead.Store
	tasks          task.Store
	machines       machine.Store
	securityEvents security.Store
}

func buildStores(db *sql.DB) stores {
	if db == nil {
		return stores{
			audit:          auditmemory.New(),
			users:          identitymemory.New(),
			workspaces:     workspacememory.New(),
			operations:     operationmemory.New(),
			leads:          leadmemory.New(),
			tasks:          taskmemory.New(),
			machines:       machinememory.New(),
			securityEvents: securitymemory.New(),
		}
	}
	return stores{
		audit:          auditpostgres.New(db),
		users:          identitypostgres.New(db),
		workspaces:     workspacepostgres.New(db),
		operations:     operationpostgres.New(db),
		leads:          leadpostgres.New(db),
		tasks:          taskpostgres.New(db),
		machines:       machinepostgres.New(db),
		securityEvents: securitypostgres.New(db),
	}
}
