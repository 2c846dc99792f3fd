package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const topicsYAML = `topics:
  - name: farming
    tag: farm
    recipient: farm@example.com
    keywords: [" Traktor ", "Saatgut"]
    deductible: true
  - name: it
    tag: it
    recipient: it@example.com
    keywords: [server]
`

func writeTopics(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topics.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write topics file: %v", err)
	}
	return path
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PAPERLESS_TOKEN", "token")
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("SMTP_USER", "router")
	t.Setenv("SMTP_PASS", "secret")
	t.Setenv("MAIL_FROM", "router@example.com")
	t.Setenv("TOPICS_FILE", writeTopics(t, topicsYAML))
	// Clear optional knobs so defaults are observable.
	for _, key := range []string{
		"GATE_THRESHOLD", "INVOICE_CONFIDENCE_MIN", "POLL_INTERVAL",
		"MAX_DOCS_PER_LOOP", "DEFAULT_TOPIC", "MATCH_IBANS",
		"LEDGER_DRIVER", "LEDGER_DSN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GateThreshold != 0.35 {
		t.Fatalf("GateThreshold = %v, want 0.35", cfg.GateThreshold)
	}
	if cfg.InvoiceConfidenceMin != 0.60 {
		t.Fatalf("InvoiceConfidenceMin = %v, want 0.60", cfg.InvoiceConfidenceMin)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if cfg.PageSize != 20 {
		t.Fatalf("PageSize = %d, want 20", cfg.PageSize)
	}
	if cfg.LedgerDriver != "sqlite" {
		t.Fatalf("LedgerDriver = %q, want sqlite", cfg.LedgerDriver)
	}
	if cfg.GateModel == "" || cfg.ExtractModel == "" {
		t.Fatal("gate and extract models must have defaults")
	}
}

func TestLoadParsesTopicsFile(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Topics) != 2 {
		t.Fatalf("len(Topics) = %d, want 2", len(cfg.Topics))
	}
	farming := cfg.Topics[0]
	if farming.Name != "farming" || !farming.Deductible {
		t.Fatalf("unexpected first topic: %+v", farming)
	}
	if want := []string{"traktor", "saatgut"}; !reflect.DeepEqual(farming.Keywords, want) {
		t.Fatalf("keywords = %v, want lowercase trimmed %v", farming.Keywords, want)
	}

	topic, ok := cfg.TopicByName("it")
	if !ok || topic.Recipient != "it@example.com" {
		t.Fatalf("TopicByName(it) = %+v, %v", topic, ok)
	}
}

func TestDefaultTopicFallsBackToFirst(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultTopic != "farming" {
		t.Fatalf("DefaultTopic = %q, want first-listed topic", cfg.DefaultTopic)
	}
}

func TestUnknownDefaultTopicRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEFAULT_TOPIC", "legal")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "default topic") {
		t.Fatalf("Load() error = %v, want default topic rejection", err)
	}
}

func TestMissingTokenRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAPERLESS_TOKEN", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "PAPERLESS_TOKEN") {
		t.Fatalf("Load() error = %v, want token requirement", err)
	}
}

func TestMissingTopicsFileRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOPICS_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "topic") {
		t.Fatalf("Load() error = %v, want missing-topics rejection", err)
	}
}

func TestMatchIBANsNormalized(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MATCH_IBANS", " de44 5001 0517 5407 3249 31 , GB29NWBK60161331926819 ,, ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"DE44500105175407324931", "GB29NWBK60161331926819"}
	if !reflect.DeepEqual(cfg.MatchIBANs, want) {
		t.Fatalf("MatchIBANs = %v, want %v", cfg.MatchIBANs, want)
	}
}

func TestPostgresLedgerRequiresDSN(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LEDGER_DRIVER", "postgres")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "LEDGER_DSN") {
		t.Fatalf("Load() error = %v, want DSN requirement", err)
	}
}

func TestInvalidThresholdRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GATE_THRESHOLD", "1.2")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "GATE_THRESHOLD") {
		t.Fatalf("Load() error = %v, want threshold rejection", err)
	}
}
