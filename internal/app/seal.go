package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shandysiswandi/otpdeck/internal/pkg/config"
	"github.com/shandysiswandi/otpdeck/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdeck/internal/pkg/sealed"
	"github.com/shandysiswandi/otpdeck/internal/pkg/validator"
)

// ErrNoSealingKey indicates neither secrets.encryption_key nor
// secrets.passphrase is configured.
var ErrNoSealingKey = errors.New("app: no secrets encryption key or passphrase configured")

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "./config/config.yaml"
}

// checkedSettings loads and validates settings from cfg.
func checkedSettings(cfg config.Config, v validator.Validator) (settings, error) {
	s := loadSettings(cfg)
	if err := v.Validate(s); err != nil {
		return settings{}, err
	}
	if strings.TrimSpace(cfg.GetString("secrets.encryption_key")) != "" && len(s.SecretsKeyMaterial) == 0 {
		return settings{}, errors.New("secrets.encryption_key must be base64")
	}
	return s, nil
}

// newBox builds the envelope codec from the configured key or passphrase and
// wipes them from s. It returns nil when secrets are kept in plain text.
func newBox(s *settings) (*sealed.Box, error) {
	switch {
	case len(s.SecretsKeyMaterial) > 0:
		box, err := sealed.New(s.SecretsKeyMaterial)
		clear(s.SecretsKeyMaterial)
		return box, err
	case s.SecretsPassphrase != "":
		box, err := sealed.NewFromPassphrase([]byte(s.SecretsPassphrase), s.SecretsSalt)
		s.SecretsPassphrase = ""
		return box, err
	default:
		return nil, nil
	}
}

// SealFile encrypts the plain secrets file at in with the key or passphrase
// from the configuration at CONFIG_PATH and writes the envelope to out. The
// result is what the loader expects when the same key is configured.
func SealFile(in, out string) error {
	cfg, err := config.NewViper(configPath())
	if err != nil {
		return goerror.NewInvalidConfig(err)
	}
	defer cfg.Close()

	v, err := validator.NewV10Validator()
	if err != nil {
		return err
	}

	s, err := checkedSettings(cfg, v)
	if err != nil {
		return goerror.NewInvalidConfig(err)
	}

	box, err := newBox(&s)
	if err != nil {
		return goerror.NewInvalidConfig(err)
	}
	if box == nil {
		return goerror.NewInvalidConfig(ErrNoSealingKey)
	}

	plain, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	defer clear(plain)

	envelope, err := box.Seal(plain)
	if err != nil {
		return fmt.Errorf("seal %s: %w", in, err)
	}

	if err := os.WriteFile(out, envelope, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	slog.Info("secrets file sealed", "in", in, "out", out, "bytes", len(envelope))
	return nil
}
