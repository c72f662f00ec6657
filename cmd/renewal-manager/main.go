// cmd/renewal-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"renewal-workers/internal/common/aws"
	"renewal-workers/internal/common/camunda"
	"renewal-workers/internal/common/config"
	"renewal-workers/internal/common/crm"
	"renewal-workers/internal/common/database"
	"renewal-workers/internal/common/logger"
	"renewal-workers/internal/common/observability"
	"renewal-workers/pkg/registry"

	// Intake Worker (1)
	lrp "renewal-workers/internal/workers/intake/load-renewal-portfolio"

	// Renewal Decisioning Workers (4)
	crp "renewal-workers/internal/workers/renewal/classify-renewal-priority"
	ep "renewal-workers/internal/workers/renewal/explain-priority"
	rrd "renewal-workers/internal/workers/renewal/record-renewal-decision"
	scp "renewal-workers/internal/workers/renewal/score-close-probability"

	// Quote Workers (2)
	gq "renewal-workers/internal/workers/quote/generate-quote"
	rqd "renewal-workers/internal/workers/quote/record-quote-decision"

	// Negotiation Workers (2)
	cri "renewal-workers/internal/workers/negotiation/classify-rejection-intent"
	pna "renewal-workers/internal/workers/negotiation/propose-next-action"

	// Insights & Notification Workers (2)
	bps "renewal-workers/internal/workers/insights/build-portfolio-snapshot"
	srn "renewal-workers/internal/workers/notification/send-renewal-notice"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting renewal manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("renewal-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Camunda Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
			RetryConfig:            camunda.DefaultRetryConfig,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Camunda client initialization")

	if err != nil {
		zapLog.Fatal("camunda client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Camunda client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init External Service Clients ---
	crmClient := crm.NewClient(
		cfg.Integrations.CRM.BaseURL,
		cfg.Integrations.CRM.AuthToken,
		time.Duration(cfg.Integrations.CRM.Timeout)*time.Millisecond,
	)

	zapLog.Info("All external service clients initialized")

	// --- Load Activity Registry ---
	activityRegistry, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}

	var workers []*camunda.CamundaWorker
	startWorker := func(taskType string, handlerFunc camunda.HandlerFunc) {
		wcfg := cfg.Workers[taskType]
		if _, err := activityRegistry.FindByTaskType(taskType); err != nil {
			zapLog.Warn("task type not in activity registry", zap.String("taskType", taskType))
		}
		// Record the otel job metrics alongside the per-worker prometheus ones.
		instrumented := func(client worker.JobClient, job entities.Job) {
			start := time.Now()
			handlerFunc(client, job)
			obs.RecordJobProcessed(ctx, taskType)
			obs.RecordJobDuration(ctx, time.Since(start), taskType)
		}
		w := camunda.NewWorker(zeebeClient, taskType, wcfg.MaxJobsActive,
			time.Duration(wcfg.Timeout)*time.Millisecond, instrumented, zapLog)
		workers = append(workers, w)
	}

	workerTimeout := func(taskType string) time.Duration {
		return time.Duration(cfg.Workers[taskType].Timeout) * time.Millisecond
	}
	genAITimeout := time.Duration(cfg.APIs.GenAI.Timeout) * time.Millisecond

	// --- START: Register ALL 11 Workers ---

	// --- 1. Intake Worker (1) ---
	if cfg.Workers[lrp.TaskType].Enabled {
		lrpCfg := lrp.LoadConfig()
		lrpCfg.Timeout = workerTimeout(lrp.TaskType)
		handler := lrp.NewHandler(lrpCfg, pg.DB, redis.Client, log)
		startWorker(lrp.TaskType, handler.Handle)
	}

	// --- 2. Renewal Decisioning Workers (4) ---
	if cfg.Workers[crp.TaskType].Enabled {
		crpCfg := crp.LoadConfig()
		crpCfg.Timeout = workerTimeout(crp.TaskType)
		if len(cfg.Pricing.DiscountByPriority) > 0 {
			crpCfg.DiscountByPriority = cfg.Pricing.DiscountByPriority
		}
		handler := crp.NewHandler(crpCfg, log)
		startWorker(crp.TaskType, handler.Handle)
	}

	if cfg.Workers[scp.TaskType].Enabled {
		scpCfg := scp.LoadConfig()
		scpCfg.Timeout = workerTimeout(scp.TaskType)
		scpCfg.GenAIBaseURL = cfg.APIs.GenAI.BaseURL
		scpCfg.GenAIEnabled = cfg.APIs.GenAI.Enabled
		scpCfg.GenAITimeout = genAITimeout
		scpCfg.MaxRetries = cfg.APIs.GenAI.MaxRetries
		handler := scp.NewHandler(scpCfg, log)
		startWorker(scp.TaskType, handler.Handle)
	}

	if cfg.Workers[ep.TaskType].Enabled {
		epCfg := ep.LoadConfig()
		epCfg.Timeout = workerTimeout(ep.TaskType)
		epCfg.GenAIBaseURL = cfg.APIs.GenAI.BaseURL
		epCfg.GenAIEnabled = cfg.APIs.GenAI.Enabled
		epCfg.GenAITimeout = genAITimeout
		epCfg.MaxRetries = cfg.APIs.GenAI.MaxRetries
		epCfg.MaxTokens = cfg.APIs.GenAI.MaxTokens
		epCfg.Temperature = cfg.APIs.GenAI.Temperature
		handler := ep.NewHandler(epCfg, log)
		startWorker(ep.TaskType, handler.Handle)
	}

	if cfg.Workers[rrd.TaskType].Enabled {
		rrdCfg := rrd.LoadConfig()
		rrdCfg.Timeout = workerTimeout(rrd.TaskType)
		handler := rrd.NewHandler(rrdCfg, pg.DB, esClient.Client, log)
		startWorker(rrd.TaskType, handler.Handle)
	}

	// --- 3. Quote Workers (2) ---
	if cfg.Workers[gq.TaskType].Enabled {
		gqCfg := gq.LoadConfig()
		gqCfg.Timeout = workerTimeout(gq.TaskType)
		if cfg.Pricing.BaseSKU != "" {
			gqCfg.BaseSKU = cfg.Pricing.BaseSKU
		}
		if cfg.Pricing.AddOnSKU != "" {
			gqCfg.AddOnSKU = cfg.Pricing.AddOnSKU
		}
		if cfg.Pricing.AddOnPrice > 0 {
			gqCfg.AddOnPrice = cfg.Pricing.AddOnPrice
		}
		if cfg.Pricing.RenewalTermDays > 0 {
			gqCfg.RenewalTermDays = cfg.Pricing.RenewalTermDays
		}
		if cfg.Pricing.ServiceLevel != "" {
			gqCfg.ServiceLevel = cfg.Pricing.ServiceLevel
		}
		handler := gq.NewHandler(gqCfg, pg.DB, redis.Client, log)
		startWorker(gq.TaskType, handler.Handle)
	}

	if cfg.Workers[rqd.TaskType].Enabled {
		rqdCfg := rqd.LoadConfig()
		rqdCfg.Timeout = workerTimeout(rqd.TaskType)
		handler := rqd.NewHandler(rqdCfg, pg.DB, redis.Client, log)
		startWorker(rqd.TaskType, handler.Handle)
	}

	// --- 4. Negotiation Workers (2) ---
	if cfg.Workers[cri.TaskType].Enabled {
		criCfg := cri.LoadConfig()
		criCfg.Timeout = workerTimeout(cri.TaskType)
		criCfg.GenAIBaseURL = cfg.APIs.GenAI.BaseURL
		criCfg.GenAIEnabled = cfg.APIs.GenAI.Enabled
		criCfg.GenAITimeout = genAITimeout
		criCfg.MaxRetries = cfg.APIs.GenAI.MaxRetries
		handler := cri.NewHandler(criCfg, log)
		startWorker(cri.TaskType, handler.Handle)
	}

	if cfg.Workers[pna.TaskType].Enabled {
		pnaCfg := pna.LoadConfig()
		pnaCfg.Timeout = workerTimeout(pna.TaskType)
		if len(cfg.Negotiation.MaxDiscountByPriority) > 0 {
			pnaCfg.MaxDiscountByPriority = cfg.Negotiation.MaxDiscountByPriority
		}
		if cfg.Negotiation.DiscountStep > 0 {
			pnaCfg.DiscountStep = cfg.Negotiation.DiscountStep
		}
		handler := pna.NewHandler(pnaCfg, crmClient, log)
		startWorker(pna.TaskType, handler.Handle)
	}

	// --- 5. Insights & Notification Workers (2) ---
	if cfg.Workers[bps.TaskType].Enabled {
		bpsCfg := bps.LoadConfig()
		bpsCfg.Timeout = workerTimeout(bps.TaskType)
		handler := bps.NewHandler(bpsCfg, pg.DB, esClient.Client, log)
		startWorker(bps.TaskType, handler.Handle)
	}

	if cfg.Workers[srn.TaskType].Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SES client", zap.Error(err))
		}
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SNS client", zap.Error(err))
		}

		srnCfg := srn.LoadConfig()
		srnCfg.Timeout = workerTimeout(srn.TaskType)
		srnCfg.EmailEnabled = cfg.Notifications.Email.Enabled
		srnCfg.SMSEnabled = cfg.Notifications.SMS.Enabled
		if cfg.Notifications.Email.FromEmail != "" {
			srnCfg.FromEmail = cfg.Notifications.Email.FromEmail
		}
		handler := srn.NewHandler(srnCfg, pg.DB, sesClient, snsClient, log)
		startWorker(srn.TaskType, handler.Handle)
	}

	zapLog.Info("All renewal workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			if err := camundaClient.HealthCheck(checkCtx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Camunda client", zap.Error(err))
	}

	zapLog.Info("Renewal manager stopped gracefully")
}
