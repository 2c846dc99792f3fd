package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avoelk/paperroute/internal/config"
	"github.com/avoelk/paperroute/internal/core/usecase"
	"github.com/avoelk/paperroute/internal/infrastructure/ledger"
	"github.com/avoelk/paperroute/internal/infrastructure/llm/ollama"
	"github.com/avoelk/paperroute/internal/infrastructure/mail/smtp"
	"github.com/avoelk/paperroute/internal/infrastructure/repository/paperless"
	"github.com/avoelk/paperroute/internal/infrastructure/resilience"
	"github.com/avoelk/paperroute/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.PollerMetrics
	Poller  *usecase.Poller

	closeFn func()
}

const serviceName = "paperroute-router"

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	store, err := openLedger(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ensure ledger schema: %w", err)
	}

	policy := usecase.Policy{
		Topics:               cfg.Topics,
		DefaultTopic:         cfg.DefaultTopic,
		GateThreshold:        cfg.GateThreshold,
		InvoiceConfidenceMin: cfg.InvoiceConfidenceMin,
		MatchIBANs:           cfg.MatchIBANs,
	}

	repo := paperless.New(cfg.PaperlessBaseURL, cfg.PaperlessToken, cfg.PaperlessDownloadPath)
	registry := paperless.NewRegistry(repo)

	executorCfg := resilience.DefaultConfig()
	// One classifier call in flight at a time; the loop is sequential
	// anyway, this only smooths bursts right after startup.
	executorCfg.RatePerSecond = 1
	executorCfg.RateBurst = 2
	classifier := ollama.New(cfg.OllamaURL, cfg.GateModel, cfg.ExtractModel, cfg.Topics, resilience.NewExecutor(executorCfg))

	mailer, err := smtp.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init mailer: %w", err)
	}

	m := metrics.NewPollerMetrics(serviceName)

	cascade := usecase.NewCascade(classifier, classifier, policy, m)
	outcome := usecase.NewOutcomeApplier(repo, registry, mailer, policy, usecase.LabelNames{
		Processed:    cfg.LabelProcessed,
		Invoice:      cfg.LabelInvoice,
		Forwarded:    cfg.LabelForwarded,
		NotForwarded: cfg.LabelNotForwarded,
	}, m, logger)
	evaluator := usecase.NewEvaluator(repo, cascade, outcome, store, policy, logger)
	poller := usecase.NewPoller(repo, store, evaluator, cfg.PollInterval, cfg.PageSize, m, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Poller:  poller,
		closeFn: func() {
			_ = store.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func openLedger(cfg config.Config) (*ledger.Store, error) {
	switch cfg.LedgerDriver {
	case "postgres":
		store, err := ledger.OpenPostgres(cfg.LedgerDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres ledger: %w", err)
		}
		return store, nil
	default:
		store, err := ledger.OpenSQLite(cfg.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		return store, nil
	}
}
