package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avoelk/paperroute/internal/core/domain"
)

type Config struct {
	LogLevel string

	PaperlessBaseURL      string
	PaperlessToken        string
	PaperlessDownloadPath string

	OllamaURL    string
	GateModel    string
	ExtractModel string

	GateThreshold        float64
	InvoiceConfidenceMin float64

	MatchIBANs []string

	TopicsFile   string
	Topics       []domain.Topic
	DefaultTopic string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	LabelProcessed    string
	LabelInvoice      string
	LabelForwarded    string
	LabelNotForwarded string

	PollInterval time.Duration
	PageSize     int

	LedgerDriver string
	LedgerPath   string
	LedgerDSN    string

	MetricsPort string
}

type topicsFile struct {
	Topics []domain.Topic `yaml:"topics"`
}

var whitespace = regexp.MustCompile(`\s+`)

func Load() (Config, error) {
	cfg := Config{
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PaperlessBaseURL:      strings.TrimRight(mustEnv("PAPERLESS_BASE_URL", "http://localhost:8000"), "/"),
		PaperlessToken:        mustEnv("PAPERLESS_TOKEN", ""),
		PaperlessDownloadPath: mustEnv("PAPERLESS_DOWNLOAD_PATH", "/api/documents/%d/download/"),

		OllamaURL:    mustEnv("OLLAMA_URL", "http://localhost:11434"),
		GateModel:    mustEnv("OLLAMA_MODEL_GATE", "qwen2.5:3b"),
		ExtractModel: mustEnv("OLLAMA_MODEL_EXTRACT", "llama3.1:8b"),

		GateThreshold:        mustEnvFloat("GATE_THRESHOLD", 0.35),
		InvoiceConfidenceMin: mustEnvFloat("INVOICE_CONFIDENCE_MIN", 0.60),

		MatchIBANs: splitIBANs(mustEnv("MATCH_IBANS", "")),

		TopicsFile:   mustEnv("TOPICS_FILE", "topics.yaml"),
		DefaultTopic: mustEnv("DEFAULT_TOPIC", ""),

		SMTPHost: mustEnv("SMTP_HOST", ""),
		SMTPPort: mustEnvInt("SMTP_PORT", 587),
		SMTPUser: mustEnv("SMTP_USER", ""),
		SMTPPass: mustEnv("SMTP_PASS", ""),
		MailFrom: mustEnv("MAIL_FROM", ""),

		LabelProcessed:    mustEnv("LABEL_PROCESSED", "ai-processed"),
		LabelInvoice:      mustEnv("LABEL_INVOICE", "invoice"),
		LabelForwarded:    mustEnv("LABEL_FORWARDED", "forwarded"),
		LabelNotForwarded: mustEnv("LABEL_NOT_FORWARDED", "not-forwarded"),

		PollInterval: mustEnvDuration("POLL_INTERVAL", 30*time.Second),
		PageSize:     mustEnvInt("MAX_DOCS_PER_LOOP", 20),

		LedgerDriver: mustEnv("LEDGER_DRIVER", "sqlite"),
		LedgerPath:   mustEnv("LEDGER_PATH", "./data/state.sqlite"),
		LedgerDSN:    mustEnv("LEDGER_DSN", ""),

		MetricsPort: mustEnv("METRICS_PORT", "9090"),
	}

	topics, err := loadTopics(cfg.TopicsFile)
	if err != nil {
		return Config{}, err
	}
	cfg.Topics = topics

	if cfg.DefaultTopic == "" && len(cfg.Topics) > 0 {
		cfg.DefaultTopic = cfg.Topics[0].Name
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.PaperlessToken == "" {
		return fmt.Errorf("config: PAPERLESS_TOKEN is required")
	}
	if c.SMTPHost == "" || c.SMTPUser == "" || c.SMTPPass == "" {
		return fmt.Errorf("config: SMTP_HOST, SMTP_USER and SMTP_PASS are required")
	}
	if c.MailFrom == "" {
		return fmt.Errorf("config: MAIL_FROM is required")
	}
	if len(c.Topics) == 0 {
		return fmt.Errorf("config: at least one topic must be configured in %s", c.TopicsFile)
	}
	seen := make(map[string]bool, len(c.Topics))
	for _, topic := range c.Topics {
		if topic.Name == "" {
			return fmt.Errorf("config: topic with empty name in %s", c.TopicsFile)
		}
		if seen[topic.Name] {
			return fmt.Errorf("config: duplicate topic %q in %s", topic.Name, c.TopicsFile)
		}
		seen[topic.Name] = true
		if topic.Tag == "" {
			return fmt.Errorf("config: topic %q has no tag", topic.Name)
		}
		if topic.Recipient == "" {
			return fmt.Errorf("config: topic %q has no recipient", topic.Name)
		}
	}
	if !seen[c.DefaultTopic] {
		return fmt.Errorf("config: default topic %q is not a configured topic", c.DefaultTopic)
	}
	if c.GateThreshold < 0 || c.GateThreshold > 1 {
		return fmt.Errorf("config: GATE_THRESHOLD must be within [0,1], got %v", c.GateThreshold)
	}
	if c.InvoiceConfidenceMin < 0 || c.InvoiceConfidenceMin > 1 {
		return fmt.Errorf("config: INVOICE_CONFIDENCE_MIN must be within [0,1], got %v", c.InvoiceConfidenceMin)
	}
	switch c.LedgerDriver {
	case "sqlite":
		if c.LedgerPath == "" {
			return fmt.Errorf("config: LEDGER_PATH is required for the sqlite ledger")
		}
	case "postgres":
		if c.LedgerDSN == "" {
			return fmt.Errorf("config: LEDGER_DSN is required for the postgres ledger")
		}
	default:
		return fmt.Errorf("config: unknown LEDGER_DRIVER %q", c.LedgerDriver)
	}
	return nil
}

// TopicByName returns the configured topic, or false when unknown.
func (c Config) TopicByName(name string) (domain.Topic, bool) {
	for _, topic := range c.Topics {
		if topic.Name == name {
			return topic, true
		}
	}
	return domain.Topic{}, false
}

func loadTopics(path string) ([]domain.Topic, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read topics file %s: %w", path, err)
	}

	var parsed topicsFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse topics file %s: %w", path, err)
	}

	for i := range parsed.Topics {
		for j, kw := range parsed.Topics[i].Keywords {
			parsed.Topics[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	return parsed.Topics, nil
}

// splitIBANs normalizes the comma-separated exact-match allow-list the
// same way extracted identifiers are normalized.
func splitIBANs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = whitespace.ReplaceAllString(strings.TrimSpace(part), "")
		if part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
