package sealed_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpdeck/internal/pkg/sealed"
)

var testKey = bytes.Repeat([]byte{0x42}, 32)

func TestBox_SealOpen(t *testing.T) {
	t.Parallel()

	box, err := sealed.New(testKey)
	require.NoError(t, err)
	plaintext := []byte("github,JBSWY3DPEHPK3PXP\naws,MFRGG===\n")

	envelope, err := box.Seal(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, string(envelope), "JBSWY3DPEHPK3PXP")

	again, err := box.Seal(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, envelope, again, "nonce must differ per seal")

	got, err := box.Open(envelope)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestBox_OpenRejectsTampering(t *testing.T) {
	t.Parallel()

	box, err := sealed.New(testKey)
	require.NoError(t, err)
	envelope, err := box.Seal([]byte("github,JBSWY3DPEHPK3PXP\n"))
	require.NoError(t, err)

	tampered := bytes.Clone(envelope)
	tampered[len(tampered)-1] ^= 0x01
	_, err = box.Open(tampered)
	require.ErrorIs(t, err, sealed.ErrOpenFailed)

	wrongVersion := bytes.Clone(envelope)
	wrongVersion[1] = 9
	_, err = box.Open(wrongVersion)
	require.ErrorIs(t, err, sealed.ErrUnsupportedVersion)

	_, err = box.Open(envelope[:10])
	require.ErrorIs(t, err, sealed.ErrEnvelopeTooShort)

	other, err := sealed.New(bytes.Repeat([]byte{0x24}, 32))
	require.NoError(t, err)
	_, err = other.Open(envelope)
	require.ErrorIs(t, err, sealed.ErrOpenFailed)
}

func TestNew_KeyLength(t *testing.T) {
	t.Parallel()

	_, err := sealed.New([]byte("short"))
	require.ErrorIs(t, err, sealed.ErrInvalidKeyLength)

	box, err := sealed.New(testKey)
	require.NoError(t, err)
	_, err = box.Seal(nil)
	require.ErrorIs(t, err, sealed.ErrPlaintextEmpty)
}

func TestDeriveKey(t *testing.T) {
	t.Parallel()

	salt := []byte("0123456789abcdef")

	tests := []struct {
		name       string
		passphrase []byte
		salt       []byte
		wantErr    error
	}{
		{name: "ok", passphrase: []byte("correct horse"), salt: salt},
		{name: "empty passphrase", passphrase: nil, salt: salt, wantErr: sealed.ErrPassphraseEmpty},
		{name: "short salt", passphrase: []byte("correct horse"), salt: []byte("short"), wantErr: sealed.ErrSaltTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			key, err := sealed.DeriveKey(tt.passphrase, tt.salt)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, 32)

			again, err := sealed.DeriveKey(tt.passphrase, tt.salt)
			require.NoError(t, err)
			assert.Equal(t, key, again)
		})
	}
}

func TestNewFromPassphrase_RoundTrip(t *testing.T) {
	t.Parallel()

	salt := []byte("0123456789abcdef")
	sealer, err := sealed.NewFromPassphrase([]byte("correct horse"), salt)
	require.NoError(t, err)
	envelope, err := sealer.Seal([]byte("github,JBSWY3DPEHPK3PXP\n"))
	require.NoError(t, err)

	opener, err := sealed.NewFromPassphrase([]byte("correct horse"), salt)
	require.NoError(t, err)
	plain, err := opener.Open(envelope)
	require.NoError(t, err)
	assert.Equal(t, "github,JBSWY3DPEHPK3PXP\n", string(plain))

	wrong, err := sealed.NewFromPassphrase([]byte("battery staple"), salt)
	require.NoError(t, err)
	_, err = wrong.Open(envelope)
	require.ErrorIs(t, err, sealed.ErrOpenFailed)
}
