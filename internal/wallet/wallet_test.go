package wallet

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testJWK renders a freshly generated RSA key in keyfile form.
func testJWK(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	enc := func(n *big.Int) string {
		return base64.RawURLEncoding.EncodeToString(n.Bytes())
	}
	raw, err := json.Marshal(map[string]string{
		"kty": "RSA",
		"n":   enc(key.N),
		"e":   enc(big.NewInt(int64(key.E))),
		"d":   enc(key.D),
		"p":   enc(key.Primes[0]),
		"q":   enc(key.Primes[1]),
	})
	require.NoError(t, err)
	return raw, key
}

func TestLoadKeyfile(t *testing.T) {
	raw, key := testJWK(t)

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	w, err := Load(path)
	require.NoError(t, err)

	digest := sha256.Sum256(key.N.Bytes())
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(digest[:]), w.ActiveAddress())
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(key.N.Bytes()), w.Owner())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	raw, _ := testJWK(t)
	w, err := FromJWK(raw)
	require.NoError(t, err)

	msg := []byte(`{"process":"p","tags":[{"name":"Action","value":"GetModels"}],"nonce":"n"}`)
	sig, err := w.Sign(msg)
	require.NoError(t, err)
	require.NoError(t, w.Verify(msg, sig))

	// A tampered message must not verify.
	assert.Error(t, w.Verify(append(msg, '!'), sig))
}

func TestFromJWKRejectsBadKeys(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":    `{`,
		"wrong kty":   `{"kty":"EC","n":"AQ","e":"AQ","d":"AQ","p":"AQ","q":"AQ"}`,
		"missing d":   `{"kty":"RSA","n":"AQ","e":"AQ","p":"AQ","q":"AQ"}`,
		"bad base64":  `{"kty":"RSA","n":"!!!","e":"AQ","d":"AQ","p":"AQ","q":"AQ"}`,
		"invalid key": `{"kty":"RSA","n":"AQ","e":"AQ","d":"AQ","p":"AQ","q":"AQ"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := FromJWK([]byte(raw))
			assert.Error(t, err)
		})
	}
}
