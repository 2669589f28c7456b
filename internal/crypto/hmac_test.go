package crypto

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func TestL2Headers(t *testing.T) {
	auth := &HMACAuth{
		Key:        "api-key-1",
		Secret:     base64.StdEncoding.EncodeToString([]byte("derived-secret")),
		Passphrase: "pass",
		Now:        fixedClock(1756700000),
	}

	headers := auth.L2Headers("0xabc", "POST", "/order", `{"size":"10"}`)

	assert.Equal(t, "0xabc", headers["POLY_ADDRESS"])
	assert.Equal(t, "api-key-1", headers["POLY_API_KEY"])
	assert.Equal(t, "1756700000", headers["POLY_TIMESTAMP"])
	assert.Equal(t, "pass", headers["POLY_PASSPHRASE"])

	sig, err := base64.StdEncoding.DecodeString(headers["POLY_SIGNATURE"])
	require.NoError(t, err)
	assert.Len(t, sig, 32)

	// Same inputs, same signature.
	again := auth.L2Headers("0xabc", "POST", "/order", `{"size":"10"}`)
	assert.Equal(t, headers["POLY_SIGNATURE"], again["POLY_SIGNATURE"])

	// Any change to the signed material changes the signature.
	other := auth.L2Headers("0xabc", "POST", "/order", `{"size":"11"}`)
	assert.NotEqual(t, headers["POLY_SIGNATURE"], other["POLY_SIGNATURE"])
}

func TestL2HeadersRawSecretFallback(t *testing.T) {
	auth := &HMACAuth{
		Key:    "api-key-1",
		Secret: "!!not-base64!!",
		Now:    fixedClock(1756700000),
	}
	headers := auth.L2Headers("0xabc", "GET", "/balance", "")
	assert.NotEmpty(t, headers["POLY_SIGNATURE"])
}

func TestHMACAuthStringRedacts(t *testing.T) {
	auth := &HMACAuth{Key: "api-key-1", Secret: "supersecretvalue"}
	s := auth.String()
	assert.NotContains(t, s, "supersecretvalue")
	assert.Contains(t, s, "api-****")
}
