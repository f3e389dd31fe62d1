// Package wallet loads Arweave-style JWK keyfiles and signs registry messages.
//
// The active address is derived the way Arweave derives it: the base64url
// encoding of the SHA-256 digest of the owner modulus. Signatures are
// RSA-PSS over SHA-256, matching the data-item signature scheme the remote
// process expects.
package wallet

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
)

// saltLength is the RSA-PSS salt length used for data-item signatures.
const saltLength = 32

// Wallet is a loaded keyfile. It is safe for concurrent use.
type Wallet struct {
	key     *rsa.PrivateKey
	owner   []byte
	address string
}

// jwk is the subset of the RSA JWK format a keyfile must carry.
type jwk struct {
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
	D   string `json:"d"`
	P   string `json:"p"`
	Q   string `json:"q"`
}

// Load reads and parses a JWK keyfile from disk.
func Load(path string) (*Wallet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wallet: read keyfile: %w", err)
	}
	return FromJWK(raw)
}

// FromJWK parses a JWK document into a Wallet.
func FromJWK(raw []byte) (*Wallet, error) {
	var k jwk
	if err := json.Unmarshal(raw, &k); err != nil {
		return nil, fmt.Errorf("wallet: parse keyfile: %w", err)
	}
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("wallet: unsupported key type %q", k.Kty)
	}

	n, err := decodeBigInt(k.N)
	if err != nil {
		return nil, fmt.Errorf("wallet: modulus: %w", err)
	}
	e, err := decodeBigInt(k.E)
	if err != nil {
		return nil, fmt.Errorf("wallet: public exponent: %w", err)
	}
	d, err := decodeBigInt(k.D)
	if err != nil {
		return nil, fmt.Errorf("wallet: private exponent: %w", err)
	}
	p, err := decodeBigInt(k.P)
	if err != nil {
		return nil, fmt.Errorf("wallet: prime p: %w", err)
	}
	q, err := decodeBigInt(k.Q)
	if err != nil {
		return nil, fmt.Errorf("wallet: prime q: %w", err)
	}

	key := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: n, E: int(e.Int64())},
		D:         d,
		Primes:    []*big.Int{p, q},
	}
	key.Precompute()
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("wallet: invalid key: %w", err)
	}

	owner := n.Bytes()
	digest := sha256.Sum256(owner)

	return &Wallet{
		key:     key,
		owner:   owner,
		address: base64.RawURLEncoding.EncodeToString(digest[:]),
	}, nil
}

// ActiveAddress returns the wallet's address.
func (w *Wallet) ActiveAddress() string {
	return w.address
}

// Owner returns the base64url-encoded owner modulus included with signed
// messages so the process can verify the signature.
func (w *Wallet) Owner() string {
	return base64.RawURLEncoding.EncodeToString(w.owner)
}

// Sign produces an RSA-PSS signature over the SHA-256 digest of msg.
func (w *Wallet) Sign(msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	sig, err := rsa.SignPSS(rand.Reader, w.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: saltLength,
		Hash:       crypto.SHA256,
	})
	if err != nil {
		return nil, fmt.Errorf("wallet: sign: %w", err)
	}
	return sig, nil
}

// Verify checks an RSA-PSS signature against this wallet's public key.
// Used by tests and diagnostic tooling.
func (w *Wallet) Verify(msg, sig []byte) error {
	digest := sha256.Sum256(msg)
	err := rsa.VerifyPSS(&w.key.PublicKey, crypto.SHA256, digest[:], sig, &rsa.PSSOptions{
		SaltLength: saltLength,
		Hash:       crypto.SHA256,
	})
	if err != nil {
		return fmt.Errorf("wallet: verify: %w", err)
	}
	return nil
}

func decodeBigInt(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("missing field")
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}
