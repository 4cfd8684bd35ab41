package auth_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-users-auth"
)

func textCode(t *testing.T, err error) string {
	t.Helper()
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr), "expected rich error, got %v", err)
	return richErr.TextCode
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := auth.ParseConfig(env.Options{
		Environment: map[string]string{
			"AUTH_SIGNING_KEY": string(testSigningKey),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, testSigningKey, cfg.GetSigningKey())
	assert.Equal(t, 30*time.Minute, cfg.GetTokenTTL())
	assert.Equal(t, "Bearer", cfg.GetAuthScheme())
	assert.Equal(t, "security", cfg.GetContextKey())
	assert.Equal(t, "bcrypt", cfg.GetPasswordHasher())
	assert.Equal(t, 12, cfg.GetBcryptCost())
	assert.False(t, cfg.GetUseHashid())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "*", cfg.CORSOrigins())
}

func TestParseConfig_Overrides(t *testing.T) {
	raw := []byte("an-entirely-different-secret-of-40-bytes")
	cfg, err := auth.ParseConfig(env.Options{
		Environment: map[string]string{
			"AUTH_SIGNING_KEY":          base64.StdEncoding.EncodeToString(raw),
			"AUTH_SIGNING_KEY_ENCODING": "base64",
			"AUTH_TOKEN_TTL":            "5m",
			"AUTH_ISSUER":               "svc",
			"AUTH_PASSWORD_HASHER":      "argon2id",
			"AUTH_USE_HASHID":           "true",
			"CORS_ALLOW_ORIGINS":        " https://a.test, ,https://b.test ",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, raw, cfg.GetSigningKey())
	assert.Equal(t, 5*time.Minute, cfg.GetTokenTTL())
	assert.Equal(t, "svc", cfg.GetIssuer())
	assert.Equal(t, "argon2id", cfg.GetPasswordHasher())
	assert.True(t, cfg.GetUseHashid())
	assert.Equal(t, "https://a.test,https://b.test", cfg.CORSOrigins())
}

func TestParseConfig_SigningKeyErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		code string
	}{
		{
			name: "missing",
			env:  map[string]string{},
			code: auth.TextCodeMissingSigningKey,
		},
		{
			name: "blank",
			env:  map[string]string{"AUTH_SIGNING_KEY": "   "},
			code: auth.TextCodeMissingSigningKey,
		},
		{
			name: "too short",
			env:  map[string]string{"AUTH_SIGNING_KEY": "secret"},
			code: auth.TextCodeWeakSigningKey,
		},
		{
			name: "short after base64 decoding",
			env: map[string]string{
				"AUTH_SIGNING_KEY":          base64.StdEncoding.EncodeToString([]byte("short")),
				"AUTH_SIGNING_KEY_ENCODING": "base64",
			},
			code: auth.TextCodeWeakSigningKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.ParseConfig(env.Options{Environment: tt.env})
			require.Error(t, err)
			assert.Equal(t, tt.code, textCode(t, err))
		})
	}
}

func TestDecodeSigningKey(t *testing.T) {
	key := strings.Repeat("k", 32)

	got, err := auth.DecodeSigningKey(key, "RAW")
	require.NoError(t, err)
	assert.Equal(t, []byte(key), got)

	got, err = auth.DecodeSigningKey(base64.RawStdEncoding.EncodeToString([]byte(key)), "base64")
	require.NoError(t, err)
	assert.Equal(t, []byte(key), got)

	_, err = auth.DecodeSigningKey("not base64 at all!!", "base64")
	assert.Error(t, err)

	_, err = auth.DecodeSigningKey(key, "hex")
	assert.Error(t, err)
}

func TestEnvConfig_DumpMasksSecret(t *testing.T) {
	cfg, err := auth.ParseConfig(env.Options{
		Environment: map[string]string{"AUTH_SIGNING_KEY": string(testSigningKey)},
	})
	require.NoError(t, err)

	out := cfg.Dump()
	assert.NotContains(t, out, string(testSigningKey))
	assert.Contains(t, out, "****")
}

func TestLoadConfig_EnvFile(t *testing.T) {
	t.Setenv("AUTH_SIGNING_KEY", string(testSigningKey))
	t.Setenv("AUTH_ISSUER", "from-env")

	cfg, err := auth.LoadConfig(t.TempDir() + "/missing.env")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GetIssuer())
}
