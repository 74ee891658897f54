package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpdeck/internal/pkg/validator"
)

type settings struct {
	PeriodSeconds uint   `validate:"gte=1"`
	Digits        int    `validate:"oneof=6 8"`
	LogLevel      string `validate:"loglevel"`
	Algorithm     string `validate:"hashalg"`
	EncryptionKey []byte `validate:"omitempty,len=32"`
}

func TestV10Validator_Valid(t *testing.T) {
	t.Parallel()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	err = v.Validate(settings{PeriodSeconds: 30, Digits: 6, LogLevel: "INFO", Algorithm: "SHA256"})

	require.NoError(t, err)
}

func TestV10Validator_Invalid(t *testing.T) {
	t.Parallel()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	err = v.Validate(settings{PeriodSeconds: 0, Digits: 7, LogLevel: "loud", Algorithm: "md5", EncryptionKey: []byte("short")})

	var verr validator.V10ValidationError
	require.ErrorAs(t, err, &verr)
	fields := verr.Values()
	assert.Contains(t, fields, "period_seconds")
	assert.Contains(t, fields, "digits")
	assert.Contains(t, fields, "encryption_key")
	assert.Equal(t, "LogLevel must be one of debug, info, warn, error", fields["log_level"])
	assert.Equal(t, "Algorithm must be one of sha1, sha256, sha512", fields["algorithm"])
	assert.Contains(t, err.Error(), "digits")
}
