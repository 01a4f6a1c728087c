package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iamwavecut/tool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/modbot/internal/config"
	"github.com/iamwavecut/modbot/internal/db/sqlite"
	"github.com/iamwavecut/modbot/internal/engine"
	"github.com/iamwavecut/modbot/internal/infra"
	"github.com/iamwavecut/modbot/internal/lifecycle"
	"github.com/iamwavecut/modbot/internal/moderation"
	"github.com/iamwavecut/modbot/internal/observability"
	"github.com/iamwavecut/modbot/internal/platform/discord"
	"github.com/iamwavecut/modbot/internal/review"
	"github.com/iamwavecut/modbot/internal/scoring"
	"github.com/iamwavecut/modbot/internal/scoring/bayes"
	"github.com/iamwavecut/modbot/internal/scoring/openai"
	"github.com/iamwavecut/modbot/internal/scoring/perspective"
	"github.com/iamwavecut/modbot/internal/triage"
	"github.com/iamwavecut/modbot/resources"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatalln("cant load config")
	}
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing := observability.SetupTracing()

	store, err := sqlite.NewSQLiteClient(ctx, infra.GetWorkDir(), cfg.DBPath)
	if tool.Try(err) {
		log.Fatalln("cant open database, exiting")
	}
	defer func() { _ = store.Close() }()

	chat, err := discord.New(cfg.DiscordToken)
	if tool.Try(err) {
		log.Fatalln("cant create discord session, exiting")
	}

	model, err := bayes.Load(cfg.Scoring.ModelPath)
	if tool.Try(err) {
		log.Fatalln("cant load scam classifier model, exiting")
	}

	scorer := scoring.NewService(newAttributeScorer(cfg.Scoring), model)
	blacklist := moderation.NewBlacklist(store)
	strikes := moderation.NewStrikes(store, cfg.Penalties.ReporterSuspendDuration)
	queue := review.NewQueue()

	moderator := engine.New(
		chat,
		scorer,
		triage.NewPolicy(cfg.Triage),
		blacklist,
		strikes,
		queue,
		store,
		cfg.ModChannelID,
		cfg.Penalties,
	)
	chat.Subscribe(moderator.Events())

	// Discord last: no events flow until everything downstream is up.
	runtime := lifecycle.NewRuntime(
		blacklist,
		observability.NewServer(cfg.MetricsListen),
		moderator,
		chat,
	)
	if err := runtime.Start(ctx); err != nil {
		log.WithError(err).Fatalln("cant start, exiting")
	}

	if seed, err := resources.FS.ReadFile("seed/blacklist.yml"); err == nil {
		tool.Try(blacklist.LoadSeed(ctx, seed))
	}

	log.Infoln("started")
	<-ctx.Done()
	log.Infoln("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	g, _ := errgroup.WithContext(shutdownCtx)
	g.Go(func() error { return runtime.Stop(shutdownCtx) })
	g.Go(func() error { return shutdownTracing(shutdownCtx) })
	if err := g.Wait(); err != nil {
		log.WithError(err).Errorln("shutdown finished with errors")
	}
}

func newAttributeScorer(cfg config.Scoring) scoring.AttributeScorer {
	if tool.In(cfg.Backend, "openai", "llm") {
		return openai.New(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL, cfg.Attributes)
	}
	return perspective.New(cfg.PerspectiveKey, cfg.PerspectiveURL, cfg.Attributes)
}
