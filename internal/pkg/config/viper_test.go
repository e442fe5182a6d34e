package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetArray(t *testing.T) {
	t.Run("NativeList", func(t *testing.T) {
		cfg, err := NewViperFromBytes("yaml", []byte("keys:\n  - alpha\n  - beta\n"))
		require.NoError(t, err)

		assert.Equal(t, []string{"alpha", "beta"}, cfg.GetArray("keys"))
	})

	t.Run("CommaSeparatedString", func(t *testing.T) {
		cfg, err := NewViperFromBytes("yaml", []byte(`keys: "alpha, beta,gamma"`))
		require.NoError(t, err)

		assert.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.GetArray("keys"))
	})

	t.Run("MissingKey", func(t *testing.T) {
		cfg, err := NewViperFromBytes("yaml", []byte("keys: []\n"))
		require.NoError(t, err)

		assert.Empty(t, cfg.GetArray("nope"))
	})
}

// TestDefaultConfigArrays loads the shipped config file and checks the list
// values the app depends on actually resolve. Log masking in particular must
// never come back empty, or secrets would be logged in plaintext.
func TestDefaultConfigArrays(t *testing.T) {
	cfg, err := NewViper("../../../config/config.yaml")
	require.NoError(t, err)

	maskFields := cfg.GetArray("instrument.log_mask_fields")
	require.NotEmpty(t, maskFields)
	for _, field := range []string{"authorization", "encodedSecret", "initialCode", "code", "qrCode"} {
		assert.Contains(t, maskFields, field)
	}

	assert.NotEmpty(t, cfg.GetArray("app.server.cors"))
	assert.Equal(t, []string{"totpadmin"}, cfg.GetArray("jwt.audiences"))
}
