package app

import (
	"time"

	"github.com/shandysiswandi/otpdeck/internal/pkg/config"
)

type settings struct {
	PeriodSeconds uint   `validate:"min=1,max=300"`
	Digits        int    `validate:"oneof=6 8"`
	Algorithm     string `validate:"hashalg"`

	SecretsDriver      string        `validate:"oneof=file s3 gcs minio"`
	SecretsBucket      string        `validate:"required"`
	SecretsKey         string        `validate:"required"`
	SecretsKeyMaterial []byte        `validate:"omitempty,len=32"`
	SecretsPassphrase  string        `validate:"excluded_with=SecretsKeyMaterial"`
	SecretsSalt        []byte        `validate:"required_with=SecretsPassphrase,omitempty,min=16"`
	FetchTimeout       time.Duration `validate:"min=1s"`
	FetchMaxRetries    uint          `validate:"max=10"`

	NotBefore   time.Time
	SyncTimeout time.Duration

	PollInterval time.Duration `validate:"min=10ms,max=1s"`

	TerminalEnabled bool
	HTTPEnabled     bool
	HTTPAddress     string `validate:"required_if=HTTPEnabled true,omitempty,hostname_port"`
	HTTPCORS        []string

	LogLevel string `validate:"loglevel"`
}

func loadSettings(cfg config.Config) settings {
	return settings{
		PeriodSeconds: cfg.GetUint("totp.period_seconds"),
		Digits:        cfg.GetInt("totp.digits"),
		Algorithm:     cfg.GetString("totp.algorithm"),

		SecretsDriver:      cfg.GetString("secrets.driver"),
		SecretsBucket:      cfg.GetString("secrets.bucket"),
		SecretsKey:         cfg.GetString("secrets.key"),
		SecretsKeyMaterial: cfg.GetBinary("secrets.encryption_key"),
		SecretsPassphrase:  cfg.GetString("secrets.passphrase"),
		SecretsSalt:        cfg.GetBinary("secrets.passphrase_salt"),
		FetchTimeout:       cfg.GetSecond("secrets.fetch_timeout_seconds"),
		FetchMaxRetries:    cfg.GetUint("secrets.fetch_max_retries"),

		NotBefore:   time.Unix(cfg.GetInt64("clock.not_before_unix"), 0).UTC(),
		SyncTimeout: cfg.GetSecond("clock.sync_timeout_seconds"),

		PollInterval: cfg.GetMillisecond("scheduler.poll_interval_ms"),

		TerminalEnabled: cfg.GetBool("display.terminal.enabled"),
		HTTPEnabled:     cfg.GetBool("display.http.enabled"),
		HTTPAddress:     cfg.GetString("display.http.address"),
		HTTPCORS:        cfg.GetArray("display.http.cors"),

		LogLevel: cfg.GetString("instrument.log_level"),
	}
}
