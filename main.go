package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	llmx "github.com/meetkeeps15/brandbox-agent/agent/llm"
	memoryx "github.com/meetkeeps15/brandbox-agent/agent/memory"
	promptx "github.com/meetkeeps15/brandbox-agent/agent/prompt"
	runtimex "github.com/meetkeeps15/brandbox-agent/agent/runtime"
	statex "github.com/meetkeeps15/brandbox-agent/agent/state"
	toolx "github.com/meetkeeps15/brandbox-agent/agent/tool"
	"github.com/meetkeeps15/brandbox-agent/pkg/apify"
	configx "github.com/meetkeeps15/brandbox-agent/pkg/config"
	"github.com/meetkeeps15/brandbox-agent/pkg/domaincheck"
	"github.com/meetkeeps15/brandbox-agent/pkg/fal"
	"github.com/meetkeeps15/brandbox-agent/pkg/gsearch"
	"github.com/meetkeeps15/brandbox-agent/pkg/highlevel"
	_ "github.com/meetkeeps15/brandbox-agent/pkg/logger/autoload"
	"github.com/meetkeeps15/brandbox-agent/pkg/nocodb"
	"github.com/meetkeeps15/brandbox-agent/pkg/textrazor"
	serverx "github.com/meetkeeps15/brandbox-agent/server"
)

type AppConfig struct {
	CacheDir        string        `envconfig:"CACHE_DIR" split_words:"true" default:"cache"`
	OutputsDir      string        `envconfig:"OUTPUTS_DIR" split_words:"true" default:"outputs"`
	Timezone        string        `envconfig:"TIMEZONE" split_words:"true" default:"UTC"`
	MaxToolRounds   int           `envconfig:"MAX_TOOL_ROUNDS" split_words:"true" default:"4"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("APP")
	serverCfg := configx.MustNew[serverx.Config]("APP")
	serverCfg.OutputsDir = appCfg.OutputsDir

	llmCfg := configx.MustNew[llmx.Config]("OPENAI")
	assistantCfg := llmCfg.OpenAIFor("assistant")
	chatModel, err := assistantCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("create chat model")
	}
	completer, err := llmx.NewCompleter(ctx, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create completer")
	}

	store := statex.MustNewFileStore(appCfg.CacheDir)
	crm := highlevel.MustNew(
		*configx.MustNew[highlevel.Config]("HIGHLEVEL"),
		*configx.MustNew[highlevel.FieldIDs](""),
	)

	deps := toolx.Deps{
		Store:      store,
		LLM:        completer,
		CRM:        crm,
		Domains:    domaincheck.NewWhoisChecker(*configx.MustNew[domaincheck.Config]("WHOIS")),
		Prompts:    promptx.LoadPromptSet(),
		OutputsDir: appCfg.OutputsDir,
		Timezone:   appCfg.Timezone,
	}

	if products, err := nocodb.NewClient(*configx.MustNew[nocodb.Config]("NC")); err != nil {
		log.Warn().Err(err).Msg("nocodb disabled")
	} else {
		deps.Products = products
	}
	if images, err := fal.NewClient(*configx.MustNew[fal.Config]("FAL")); err != nil {
		log.Warn().Err(err).Msg("fal disabled")
	} else {
		deps.Images = images
	}
	if scraper, err := apify.NewClient(*configx.MustNew[apify.Config]("APIFY")); err != nil {
		log.Warn().Err(err).Msg("apify disabled")
	} else {
		deps.Scraper = scraper
	}
	if search, err := gsearch.NewClient(*configx.MustNew[gsearch.Config]("")); err != nil {
		log.Warn().Err(err).Msg("google search disabled")
	} else {
		deps.Search = search
	}
	if topics, err := textrazor.NewClient(*configx.MustNew[textrazor.Config]("TEXTRAZOR")); err != nil {
		log.Warn().Err(err).Msg("textrazor disabled")
	} else {
		deps.Topics = topics
	}

	catalog, err := toolx.NewCatalog(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("build tool catalog")
	}

	memory := buildMemory(ctx)

	service, err := runtimex.New(ctx, chatModel, catalog, memory, deps.Prompts, runtimex.Config{
		MaxToolRounds: appCfg.MaxToolRounds,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build assistant runtime")
	}

	front := serverx.New(service, *serverCfg)
	httpServer := &http.Server{
		Addr:    serverCfg.Addr,
		Handler: front.Handler(),
	}

	go func() {
		log.Info().Str("addr", serverCfg.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// buildMemory selects the Postgres-backed summary store when a DSN is
// configured, otherwise the runtime falls back to its no-op store.
func buildMemory(ctx context.Context) contractx.MemoryStore {
	memCfg := configx.MustNew[memoryx.Config]("MEMORY")
	if memCfg.DSN == "" {
		log.Info().Msg("conversation memory disabled")
		return nil
	}

	store, err := memoryx.NewStore(*memCfg)
	if err != nil {
		log.Warn().Err(err).Msg("memory store disabled")
		return nil
	}
	if err := store.Init(ctx); err != nil {
		log.Warn().Err(err).Msg("memory table init failed")
	}
	return store
}
