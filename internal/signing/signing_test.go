package signing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSeedHex(t *testing.T) string {
	t.Helper()
	seed := make([]byte, seedLen)
	_, err := rand.Read(seed)
	require.NoError(t, err)
	return hex.EncodeToString(seed)
}

func TestEncryptDecryptSeedRoundTrip(t *testing.T) {
	seedHex := randomSeedHex(t)

	blob, err := EncryptSeed(seedHex, "hunter2")
	require.NoError(t, err)

	got, err := DecryptSeed(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, seedHex, got)
}

func TestDecryptSeedWrongPassword(t *testing.T) {
	blob, err := EncryptSeed(randomSeedHex(t), "hunter2")
	require.NoError(t, err)

	_, err = DecryptSeed(blob, "wrong")
	assert.Error(t, err)
}

func TestEncryptSeedRejectsBadInput(t *testing.T) {
	_, err := EncryptSeed(randomSeedHex(t), "")
	assert.Error(t, err)

	_, err = EncryptSeed("not-hex", "pw")
	assert.Error(t, err)

	_, err = EncryptSeed("abcd", "pw") // too short
	assert.Error(t, err)
}

func TestLoadSeedPrefersRawSeed(t *testing.T) {
	seedHex := randomSeedHex(t)
	got, err := LoadSeed(SeedConfig{RawSeed: seedHex})
	require.NoError(t, err)
	assert.Equal(t, seedHex, got)

	_, err = LoadSeed(SeedConfig{})
	assert.Error(t, err)
}

type fakeSubmitter struct {
	lastEnvelope string
}

func (f *fakeSubmitter) SubmitTransaction(ctx context.Context, network, envelopeXDR string) (string, error) {
	f.lastEnvelope = envelopeXDR
	return "cafebabe", nil
}

func TestSignerSignVerify(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	signer, err := NewSigner(randomSeedHex(t), nil, logger)
	require.NoError(t, err)

	payload := []byte("resolve market 42 YES")
	sig := signer.Sign(payload)
	assert.True(t, signer.Verify(payload, sig))
	assert.False(t, signer.Verify([]byte("tampered"), sig))
	assert.False(t, signer.Verify(payload, "!!not-base64!!"))
}

func TestSignAndSubmit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sub := &fakeSubmitter{}
	signer, err := NewSigner(randomSeedHex(t), sub, logger)
	require.NoError(t, err)

	hash, err := signer.SignAndSubmit(context.Background(), "testnet", "AAAA")
	require.NoError(t, err)
	assert.Equal(t, "cafebabe", hash)
	assert.Contains(t, sub.lastEnvelope, "AAAA.")
}
