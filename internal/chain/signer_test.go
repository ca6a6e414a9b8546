package chain

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

const testSeedHex = "0101010101010101010101010101010101010101010101010101010101010101"

func TestNewEd25519SignerAcceptsSeedEncodings(t *testing.T) {
	seed, err := hex.DecodeString(testSeedHex)
	require.NoError(t, err)

	reference, err := NewEd25519Signer(testSeedHex)
	require.NoError(t, err)

	variants := map[string]string{
		"hex with 0x":             "0x" + testSeedHex,
		"base64":                  base64.StdEncoding.EncodeToString(seed),
		"base64 with scheme flag": base64.StdEncoding.EncodeToString(append([]byte{0x00}, seed...)),
		"surrounding whitespace":  " " + testSeedHex + "\n",
	}
	for name, encoded := range variants {
		signer, err := NewEd25519Signer(encoded)
		require.NoError(t, err, name)
		assert.Equal(t, reference.Address(), signer.Address(), name)
	}
}

func TestNewEd25519SignerRejectsBadKeys(t *testing.T) {
	for _, encoded := range []string{"", "zzzz", "0xdeadbeef", base64.StdEncoding.EncodeToString(make([]byte, 16))} {
		_, err := NewEd25519Signer(encoded)
		require.Error(t, err, "key %q", encoded)
	}
}

func TestEd25519SignerAddressShape(t *testing.T) {
	signer, err := NewEd25519Signer(testSeedHex)
	require.NoError(t, err)

	addr := signer.Address()
	require.True(t, strings.HasPrefix(addr, "0x"))
	raw, err := hex.DecodeString(addr[2:])
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	// The address is the blake2b-256 of flag || pubkey.
	seed, _ := hex.DecodeString(testSeedHex)
	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	digest := blake2b.Sum256(append([]byte{0x00}, pub...))
	assert.Equal(t, "0x"+hex.EncodeToString(digest[:]), addr)
}

func TestEd25519SignerSign(t *testing.T) {
	signer, err := NewEd25519Signer(testSeedHex)
	require.NoError(t, err)

	txBytes := []byte("transaction payload")
	encoded, err := signer.Sign(txBytes)
	require.NoError(t, err)

	serialized, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.Len(t, serialized, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	assert.Equal(t, byte(0x00), serialized[0])

	seed, _ := hex.DecodeString(testSeedHex)
	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	assert.Equal(t, []byte(pub), serialized[1+ed25519.SignatureSize:])

	// The signature covers blake2b-256 of the intent-prefixed bytes.
	msg := append([]byte{0, 0, 0}, txBytes...)
	digest := blake2b.Sum256(msg)
	sig := serialized[1 : 1+ed25519.SignatureSize]
	assert.True(t, ed25519.Verify(pub, digest[:], sig))
}
