package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/crossposter/internal/bluesky"
	"github.com/dropDatabas3/crossposter/internal/config"
	"github.com/dropDatabas3/crossposter/internal/dispatch"
	apphttp "github.com/dropDatabas3/crossposter/internal/http"
	oauthctrl "github.com/dropDatabas3/crossposter/internal/http/controllers/oauth"
	"github.com/dropDatabas3/crossposter/internal/metrics"
	"github.com/dropDatabas3/crossposter/internal/observability/logger"
	"github.com/dropDatabas3/crossposter/internal/threads"
)

// confirmationCodeTTL es cuánto vive un código de data-deletion emitido.
const confirmationCodeTTL = 24 * time.Hour

func main() {
	// .env opcional; en producción todo llega por variables de entorno
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.L().Fatal("config load failed", logger.Err(err))
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "crossposter",
	})
	defer func() { _ = logger.Sync() }()

	if err := metrics.Register(nil); err != nil {
		logger.L().Fatal("metrics registration failed", logger.Err(err))
	}

	codec, err := oauthctrl.NewResultCodec(cfg.Cookies.ResultKey)
	if err != nil {
		logger.L().Fatal("result cookie key invalid", logger.Err(err))
	}

	threadsClient := threads.New(cfg.Threads.AppID, cfg.Threads.AppSecret, cfg.Threads.APIVersions)
	blueskyClient := bluesky.New(cfg.Bluesky.ServiceURL)
	dispatcher := dispatch.New(cfg, blueskyClient, threadsClient)

	router := apphttp.NewRouter(apphttp.RouterDeps{
		Cfg:        cfg,
		Dispatcher: dispatcher,
		Threads:    threadsClient,
		Resolver:   threadsClient,
		Codec:      codec,
		Codes:      gocache.New(confirmationCodeTTL, 10*time.Minute),
	})

	logger.L().Info("crossposter listening",
		logger.String("addr", cfg.Server.Addr),
		logger.String("env", cfg.App.Env),
	)
	if err := apphttp.Start(cfg.Server.Addr, router); err != nil {
		logger.L().Fatal("server failed", logger.Err(err))
	}
}
