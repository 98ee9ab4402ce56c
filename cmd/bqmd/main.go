// Command bqmd is the batch queue manager's single process: it wires
// the tool registry, host, worker pool, workflow store, and MJPEG stream
// manager into a gin control plane. When the job queue is enabled it
// also migrates and connects a River job database whose jobs the admin
// routes can list; queue runs themselves always use the in-process pool.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"bqm/config"
	"bqm/docs"
	"bqm/internal/control"
	"bqm/internal/control/auth"
	"bqm/internal/exifmeta"
	"bqm/internal/hostiface"
	"bqm/internal/jobqueue"
	"bqm/internal/logging"
	"bqm/internal/pool"
	"bqm/internal/rawdecoder"
	"bqm/internal/tool"
	"bqm/internal/tool/builtin"
	"bqm/internal/workflow"
)

func init() {
	log.SetOutput(os.Stdout)
	config.LoadEnvironment()
}

func main() {
	log.Println("starting bqmd...")

	cfg := config.LoadAppConfig()

	zlog, err := logging.New(cfg.ServerConfig.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	registry := tool.NewRegistry()
	builtin.RegisterAll(registry)

	decoder := rawdecoder.New(rawdecoder.Options{
		MinPreviewWidth:  1024,
		MinPreviewHeight: 768,
		DemosaicTimeout:  time.Duration(cfg.ImageIOConfig.DemosaicTimeout) * time.Second,
		Quality:          92,
		DcrawPath:        cfg.ImageIOConfig.DcrawPath,
	})
	host := hostiface.Host{
		Files:    hostiface.LocalFiles{},
		Decoder:  decoder,
		Encoder:  hostiface.BimgEncoder{},
		Metadata: exifmeta.New(),
	}

	workflowsDir := os.Getenv("BQM_WORKFLOWS_DIR")
	if workflowsDir == "" {
		workflowsDir = "workflows"
	}
	store, err := workflow.Open(workflowsDir, registry)
	if err != nil {
		log.Fatalf("failed to open workflow store: %v", err)
	}

	outputDir := cfg.ImageIOConfig.ScratchDir
	if outputDir == "" {
		outputDir = "output"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	workerPool := pool.New(pool.SizeFromCPU(), host)
	queueManager := control.NewQueueManager(registry, host, workerPool, outputDir, zlog)
	streamManager := control.NewStreamManager()

	authDB, err := auth.OpenDB(cfg.DatabaseConfig)
	if err != nil {
		log.Fatalf("failed to open auth database: %v", err)
	}
	authSvc := auth.NewService(authDB)

	handlers := control.Handlers{
		Auth:     control.NewAuthHandler(authSvc),
		Queue:    control.NewQueueHandler(queueManager),
		Workflow: control.NewWorkflowHandler(store, registry, queueManager),
		Stream:   control.NewStreamHandler(streamManager),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.JobQueueConfig.Enabled {
		log.Println("durable job queue enabled, running migrations...")
		migrationCfg := jobqueue.NewMigrationConfig(cfg.DatabaseConfig)
		if err := migrationCfg.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run jobqueue migrations: %v", err)
		}

		dbPool, err := jobqueue.Connect(ctx, cfg.DatabaseConfig)
		if err != nil {
			log.Fatalf("failed to connect to jobqueue database: %v", err)
		}
		defer dbPool.Close()

		riverClient, err := river.NewClient(riverpgxv5.New(dbPool), &river.Config{
			Queues: map[string]river.QueueConfig{
				river.QueueDefault: {MaxWorkers: cfg.JobQueueConfig.Concurrency},
			},
			Workers: river.NewWorkers(),
		})
		if err != nil {
			log.Fatalf("failed to build river client: %v", err)
		}
		handlers.Jobs = control.NewJobsHandler(riverClient, dbPool)
	}

	docs.SwaggerInfo.Host = "localhost:" + cfg.ServerConfig.Port
	router := control.NewRouter(authSvc, handlers)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerConfig.Port,
		Handler: router,
	}

	go func() {
		log.Printf("control plane listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("control plane server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutdown signal received, stopping control plane...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("control plane shutdown error: %v", err)
	}

	for _, name := range streamManager.Names() {
		if err := streamManager.Stop(name); err != nil {
			log.Printf("failed to stop stream %q: %v", name, err)
		}
	}

	log.Println("bqmd stopped")
}
