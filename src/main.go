package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otellogrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jiaming2012/ig-trading/src/config"
	"github.com/jiaming2012/ig-trading/src/handler"
	"github.com/jiaming2012/ig-trading/src/services"
	"github.com/jiaming2012/ig-trading/src/utils"
)

func main() {
	run()
}

func appVersion() string {
	if v := os.Getenv("RENDER_GIT_COMMIT"); v != "" {
		return v
	}
	return "local"
}

func run() {
	if err := utils.InitEnvironmentVariables(); err != nil {
		log.Panic(err)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if level, err := log.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(level)
	}

	log.SetOutput(os.Stdout)
	log.Infof("Log level set to %v", log.GetLevel())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry is opt-in: without an OTLP endpoint configured the exporters
	// would block shutdown retrying.
	telemetryEnabled := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
	if telemetryEnabled {
		log.AddHook(otellogrus.NewHook(otellogrus.WithLevels(
			log.PanicLevel,
			log.FatalLevel,
			log.ErrorLevel,
			log.WarnLevel,
			log.InfoLevel,
		)))

		otelShutdown, err := utils.SetupOTelSDK(ctx, handler.ServiceName)
		if err != nil {
			log.Fatalf("failed to setup otel sdk: %v", err)
		}

		defer func() {
			if err := otelShutdown(context.Background()); err != nil {
				log.Errorf("otel shutdown: %v", err)
			}
		}()
	}

	sessions, err := services.NewSessionService(services.SessionConfig{
		Username:    cfg.IG.Username,
		Password:    cfg.IG.Password,
		APIKey:      cfg.IG.APIKey,
		AccountType: cfg.IG.AccType,
		APIURL:      cfg.IG.APIURL,
		TTL:         time.Duration(cfg.Order.SessionTTLMinutes) * time.Minute,
	})
	if err != nil {
		log.Fatalf("failed to create session service: %v", err)
	}

	orders := services.NewOrderService(
		sessions,
		services.Defaults{Currency: cfg.Order.DefaultCurrency},
		time.Duration(cfg.Order.RequestTimeoutSeconds)*time.Second,
	)
	markets := services.NewMarketService(sessions)

	h := handler.New(
		orders,
		markets,
		cfg.Webhook.Secret,
		appVersion(),
		cfg.IG.AccType,
		time.Duration(cfg.Webhook.DedupeTTLMinutes)*time.Minute,
	)

	router := mux.NewRouter()
	h.SetupHandler(router)

	var root http.Handler = router
	if telemetryEnabled {
		root = otelhttp.NewHandler(router, "http.server")
	}

	srv := &http.Server{
		Handler: root,
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	signal.Notify(stop, syscall.SIGTERM)

	log.Info("Main: init complete")

	<-stop
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}

	log.Info("Main: gracefully stopped!")
}
