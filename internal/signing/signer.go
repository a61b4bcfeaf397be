package signing

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/digital-prophets/prophetd/internal/domain"
)

// Submitter delivers a signed envelope to a network and returns its hash.
type Submitter interface {
	SubmitTransaction(ctx context.Context, network, envelopeXDR string) (string, error)
}

// Signer signs payloads with an ed25519 key and submits them through a
// Submitter.
type Signer struct {
	priv      ed25519.PrivateKey
	pub       ed25519.PublicKey
	submitter Submitter
	logger    *slog.Logger
}

// NewSigner builds a Signer from a hex-encoded 32-byte seed. submitter may be
// nil when only local signing is needed.
func NewSigner(seedHex string, submitter Submitter, logger *slog.Logger) (*Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("signing: decode seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing: expected %d-byte seed, got %d", ed25519.SeedSize, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	return &Signer{
		priv:      priv,
		pub:       priv.Public().(ed25519.PublicKey),
		submitter: submitter,
		logger:    logger.With(slog.String("component", "signer")),
	}, nil
}

// PublicKey returns the hex-encoded signing public key.
func (s *Signer) PublicKey() string {
	return hex.EncodeToString(s.pub)
}

// Sign signs payload and returns the base64-encoded signature.
func (s *Signer) Sign(payload []byte) string {
	return base64.StdEncoding.EncodeToString(ed25519.Sign(s.priv, payload))
}

// Verify reports whether sig is a valid base64 signature over payload by
// this signer's key.
func (s *Signer) Verify(payload []byte, sig string) bool {
	raw, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return false
	}
	return ed25519.Verify(s.pub, payload, raw)
}

// SignAndSubmit signs the envelope, submits it on the named network, and
// returns the transaction hash.
func (s *Signer) SignAndSubmit(ctx context.Context, network, envelopeXDR string) (string, error) {
	if s.submitter == nil {
		return "", fmt.Errorf("%w: no submitter configured", domain.ErrSigningFailed)
	}

	// The signature travels inside the envelope; re-sign the raw payload so
	// the network can verify it against the account's signer.
	signed := envelopeXDR + "." + s.Sign([]byte(envelopeXDR))

	hash, err := s.submitter.SubmitTransaction(ctx, network, signed)
	if err != nil {
		return "", fmt.Errorf("signing: submit on %s: %w", network, err)
	}

	s.logger.InfoContext(ctx, "transaction submitted",
		slog.String("network", network),
		slog.String("hash", hash),
	)
	return hash, nil
}
