package cmd

import (
	"context"
	"fmt"
	"net"

	"notesapi/config"
	"notesapi/enrichment"
	"notesapi/handler"
	"notesapi/inference"
	"notesapi/log"
	"notesapi/metrics"
	"notesapi/repository"
	"notesapi/server"
	"notesapi/services"
	"notesapi/usecase"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the enrichment workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	logger := log.Logger()
	gin.SetMode(cfg.Server.GinMode)
	metrics.RegisterSystemCollectors()

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Errorf(nil, "close store: %v", err)
		}
	}()

	summarizer, err := inference.NewSummarizer(cfg.Inference)
	if err != nil {
		return err
	}
	classifier := inference.NewClassifier(cfg.Inference)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	// Model loads can take minutes; readiness reports false until they finish.
	go inference.Warm(workerCtx, summarizer, classifier)

	dispatcher, err := newDispatcher(ctx, enrichment.NewWorker(summarizer, classifier, store))
	if err != nil {
		return err
	}
	dispatcher.Start(workerCtx)

	verifier, closeVerifier, err := newVerifier(ctx)
	if err != nil {
		dispatcher.Close()
		return err
	}
	defer closeVerifier()

	router := server.SetupRouter(server.Deps{
		Config:       cfg,
		NotesService: usecase.NewNotesService(store, dispatcher),
		Health:       handler.NewHealthHandler(store, summarizer, classifier),
		Verifier:     verifier,
	})

	serveErr := server.Run(ctx, net.JoinHostPort("", cfg.Server.Port), router, cfg.Server.ShutdownTimeout)

	// Queued tasks get the shutdown grace period to finish before the
	// store closes.
	if err := enrichment.Shutdown(dispatcher, cancelWorkers, cfg.Server.ShutdownTimeout); err != nil {
		logger.Errorf(nil, "close dispatcher: %v", err)
	}
	logger.Noticef(nil, "enrichment workers stopped")
	return serveErr
}

func newDispatcher(ctx context.Context, worker *enrichment.Worker) (enrichment.Dispatcher, error) {
	e := cfg.Enrichment
	switch e.Queue {
	case config.QueuePubSub:
		client, err := enrichment.NewPubSubClient(ctx, cfg.GoogleCloud)
		if err != nil {
			return nil, err
		}
		log.Logger().Infof(nil, "enrichment via pubsub topic %s", e.PubSubTopic)
		return enrichment.NewPubSubQueue(client, e.PubSubTopic, e.PubSubSubscription, worker, e.Workers, e.EnqueueTimeout), nil
	default:
		return enrichment.NewMemoryQueue(worker, e.Workers, e.QueueSize, e.EnqueueTimeout), nil
	}
}

// newVerifier returns a nil interface when no key material is configured
// so the auth middleware can apply AUTH_MODE.
func newVerifier(ctx context.Context) (services.TokenVerifier, func(), error) {
	noop := func() {}
	if !cfg.Auth.Enabled() {
		return nil, noop, nil
	}

	var revocations *services.TokenRevocationList
	if cfg.Redis.URL != "" {
		client, err := repository.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, noop, err
		}
		revocations = services.NewTokenRevocationList(client)
	}
	closeRevocations := func() {
		if revocations != nil {
			revocations.Close()
		}
	}

	v, err := services.NewJWTVerifier(cfg.Auth, revocations)
	if err != nil {
		closeRevocations()
		return nil, noop, err
	}
	log.Logger().Infof(nil, "bearer token verification enabled")
	return v, closeRevocations, nil
}
