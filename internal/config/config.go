package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

type (
	Config struct {
		DiscordToken  string `env:"TOKEN,required"`
		ModChannelID  string `env:"MOD_CHANNEL_ID,required"`
		LogLevel      int    `env:"LOG_LEVEL,default=2"`
		DotPath       string `env:"DOT_PATH,default=~/.modbot"`
		DBPath        string `env:"DB_PATH,default=modbot.db"`
		MetricsListen string `env:"METRICS_LISTEN,default=:2112"`
		Triage        Triage
		Scoring       Scoring
		Penalties     Penalties
	}

	Triage struct {
		SuspicionThreshold  float64 `env:"SUSPICION_THRESHOLD,default=0.5"`
		ModerationThreshold float64 `env:"MODERATION_THRESHOLD,default=0.9"`
	}

	Scoring struct {
		Backend        string   `env:"SCORING_BACKEND,default=perspective"`
		PerspectiveKey string   `env:"PERSPECTIVE_KEY"`
		PerspectiveURL string   `env:"PERSPECTIVE_URL,default=https://commentanalyzer.googleapis.com/v1alpha1/comments:analyze"`
		Attributes     []string `env:"SCORING_ATTRIBUTES,default=SEVERE_TOXICITY,PROFANITY,IDENTITY_ATTACK,THREAT,TOXICITY,FLIRTATION"`
		ModelPath      string   `env:"CLASSIFIER_MODEL_PATH,default=scam_classifier.json"`

		LLMAPIKey  string `env:"LLM_API_KEY"`
		LLMModel   string `env:"LLM_API_MODEL,default=gpt-4o-mini"`
		LLMBaseURL string `env:"LLM_API_URL,default=https://api.openai.com/v1"`
	}

	Penalties struct {
		ReporterSuspendDuration time.Duration `env:"REPORTER_SUSPEND_DURATION,default=24h"`
		ShortDeactivationDays   int           `env:"SHORT_DEACT_DAYS,default=1"`
		LongDeactivationDays    int           `env:"LONG_DEACT_DAYS,default=7"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

func Load() (Config, error) {
	once.Do(func() {
		cfg := &Config{}
		envcfg := envconfig.Config{
			Lookuper: envconfig.PrefixLookuper("MB_", envconfig.OsLookuper()),
			Target:   cfg,
		}
		if err := envconfig.ProcessWith(context.Background(), &envcfg); err != nil {
			globalErr = fmt.Errorf("process env config: %w", err)
			return
		}
		if err := cfg.Triage.Validate(); err != nil {
			globalErr = err
			return
		}
		home, err := os.UserHomeDir()
		if err != nil {
			globalErr = fmt.Errorf("get user home directory: %w", err)
			return
		}
		cfg.DotPath = strings.Replace(cfg.DotPath, "~", home, 1)
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}

// Validate rejects threshold pairs that would leave no manual-review band.
func (t Triage) Validate() error {
	if t.SuspicionThreshold < 0 || t.SuspicionThreshold > 1 {
		return fmt.Errorf("suspicion threshold out of range: %v", t.SuspicionThreshold)
	}
	if t.ModerationThreshold < 0 || t.ModerationThreshold > 1 {
		return fmt.Errorf("moderation threshold out of range: %v", t.ModerationThreshold)
	}
	if t.ModerationThreshold <= t.SuspicionThreshold {
		return fmt.Errorf("moderation threshold %v must exceed suspicion threshold %v",
			t.ModerationThreshold, t.SuspicionThreshold)
	}
	return nil
}
