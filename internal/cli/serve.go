package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mintsurvey/survey-service/internal/handlers"
	"github.com/mintsurvey/survey-service/internal/recaptcha"
	"github.com/mintsurvey/survey-service/internal/services"
	"github.com/mintsurvey/survey-service/internal/utils"
)

const serviceName = "survey-service"

func serveCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the submission API and the hosted questionnaire",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, a)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides PORT)")
	return cmd
}

// buildServices connects every backend and assembles the service layer.
func buildServices(ctx context.Context, a *app) (services.ServiceManager, error) {
	if err := a.openStorage(true); err != nil {
		return nil, err
	}
	if err := a.openCache(ctx); err != nil {
		return nil, err
	}

	publisher, err := a.cfg.Events.CreateEventPublisher(a.slog())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, publisher.Close)

	var verifier recaptcha.Verifier = recaptcha.NoopVerifier{}
	if a.cfg.Recaptcha.Enabled {
		verifier = recaptcha.NewSiteVerifier(recaptcha.Config{
			Secret:    a.cfg.Recaptcha.Secret,
			VerifyURL: a.cfg.Recaptcha.VerifyURL,
			Action:    a.cfg.Recaptcha.Action,
			MinScore:  a.cfg.Recaptcha.MinScore,
			Logger:    a.slog(),
		})
	}

	// Hosted sessions submit in process with the respondent's token and
	// address.
	return services.NewServiceManager(services.Dependencies{
		Repository:   a.repo,
		Cache:        a.cache,
		CacheTTL:     a.cfg.CacheTTL,
		Publisher:    publisher,
		Verifier:     verifier,
		SessionStore: a.store,
		Logger:       a.slog(),
		Debug:        a.cfg.Debug,
	}), nil
}

func newEngine(a *app, sm services.ServiceManager) *gin.Engine {
	if !a.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		utils.ContextLogger(a.logger),
		utils.LoggerMiddleware(a.logger),
	)
	handlers.NewHandlerManager(sm, a.logger, handlers.RouterOptions{
		RateLimit: a.cfg.RateLimit,
		Auth:      handlers.NewCasdoorParser(a.cfg.Auth),
	}).SetupRoutes(engine)
	return engine
}

func runServer(ctx context.Context, a *app) error {
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.LogError(err, "Failed to release resources")
		}
	}()

	sm, err := buildServices(ctx, a)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      handlers.NewHTTPHandler(newEngine(a, sm), serviceName, []string{a.cfg.SubmitOrigin()}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Survey service starting",
			"port", a.cfg.Port,
			"storage", a.cfg.Storage,
			"session_store", a.cfg.SessionStore,
			"submit_url", a.cfg.SubmitURL())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
