package chain

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ed25519 scheme flag, prefixed to public keys and serialized signatures.
const ed25519SchemeFlag = 0x00

// Intent prefix for transaction data: scope TransactionData, version V0, app Sui.
var transactionIntent = []byte{0, 0, 0}

// Signer produces serialized signatures over built transaction bytes. Key
// derivation and storage are out of scope; a signer is handed a ready key.
type Signer interface {
	Address() string
	Sign(txBytes []byte) (string, error)
}

// Ed25519Signer signs with a raw ed25519 key.
type Ed25519Signer struct {
	key     ed25519.PrivateKey
	pub     ed25519.PublicKey
	address string
}

// NewEd25519Signer builds a signer from an encoded 32-byte seed: hex (with
// or without 0x) or base64, optionally with the scheme flag byte prepended
// as exported by standard keystores.
func NewEd25519Signer(encoded string) (*Ed25519Signer, error) {
	seed, err := decodeSeed(encoded)
	if err != nil {
		return nil, err
	}

	key := ed25519.NewKeyFromSeed(seed)
	pub := key.Public().(ed25519.PublicKey)

	payload := make([]byte, 0, 1+ed25519.PublicKeySize)
	payload = append(payload, ed25519SchemeFlag)
	payload = append(payload, pub...)
	digest := blake2b.Sum256(payload)

	return &Ed25519Signer{
		key:     key,
		pub:     pub,
		address: "0x" + hex.EncodeToString(digest[:]),
	}, nil
}

// Address returns the wallet address derived from the public key.
func (s *Ed25519Signer) Address() string {
	return s.address
}

// Sign hashes the intent-prefixed transaction bytes with blake2b-256 and
// returns the serialized signature (flag || signature || pubkey), base64.
func (s *Ed25519Signer) Sign(txBytes []byte) (string, error) {
	msg := make([]byte, 0, len(transactionIntent)+len(txBytes))
	msg = append(msg, transactionIntent...)
	msg = append(msg, txBytes...)
	digest := blake2b.Sum256(msg)

	sig := ed25519.Sign(s.key, digest[:])

	serialized := make([]byte, 0, 1+len(sig)+len(s.pub))
	serialized = append(serialized, ed25519SchemeFlag)
	serialized = append(serialized, sig...)
	serialized = append(serialized, s.pub...)
	return base64.StdEncoding.EncodeToString(serialized), nil
}

func decodeSeed(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("signing key is empty")
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(encoded, "0x"))
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("signing key is neither hex nor base64")
		}
	}

	// Keystore exports prepend the scheme flag byte.
	if len(raw) == ed25519.SeedSize+1 && raw[0] == ed25519SchemeFlag {
		raw = raw[1:]
	}
	if len(raw) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing key must be a %d-byte ed25519 seed, got %d bytes", ed25519.SeedSize, len(raw))
	}
	return raw, nil
}
