// Package signing provides encrypted seed storage and ed25519 transaction
// signing for the wallet service.
package signing

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations is the OWASP-recommended minimum for HMAC-SHA256.
	pbkdf2Iterations = 480_000
	// saltLen is the random salt length in bytes.
	saltLen = 16
	// aesKeyLen is the derived AES-256 key length.
	aesKeyLen = 32
	// currentVersion is the encrypted-seed JSON schema version.
	currentVersion = 1
	// seedLen is the ed25519 seed length in bytes.
	seedLen = 32
)

// encryptedSeedJSON is the on-disk format for an encrypted signing seed.
type encryptedSeedJSON struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt"`       // base64 standard encoding
	Nonce      string `json:"nonce"`      // base64 standard encoding
	Ciphertext string `json:"ciphertext"` // base64 standard encoding
}

// SeedConfig carries the information LoadSeed needs to resolve a seed.
// Populate the fields from environment variables or a config file.
type SeedConfig struct {
	// RawSeed is the hex-encoded 32-byte ed25519 seed. If non-empty,
	// LoadSeed returns it directly.
	RawSeed string

	// EncryptedSeedPath is the path to a JSON file produced by EncryptSeed.
	EncryptedSeedPath string

	// SeedPassword is the password used to decrypt the file at
	// EncryptedSeedPath.
	SeedPassword string
}

// EncryptSeed encrypts a hex-encoded signing seed with a password using
// PBKDF2-HMAC-SHA256 key derivation and AES-256-GCM authenticated
// encryption. It returns the JSON blob suitable for writing to disk.
func EncryptSeed(seedHex string, password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("signing: password must not be empty")
	}

	seedBytes, err := hex.DecodeString(strings.TrimSpace(seedHex))
	if err != nil {
		return nil, fmt.Errorf("signing: invalid seed hex: %w", err)
	}
	if len(seedBytes) != seedLen {
		return nil, fmt.Errorf("signing: expected %d-byte seed, got %d bytes", seedLen, len(seedBytes))
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("signing: generating salt: %w", err)
	}

	derivedKey := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, aesKeyLen, sha256.New)

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, fmt.Errorf("signing: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("signing: creating GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("signing: generating nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, seedBytes, nil)

	out := encryptedSeedJSON{
		Version:    currentVersion,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}

	return json.MarshalIndent(out, "", "  ")
}

// DecryptSeed decrypts a JSON blob produced by EncryptSeed, returning the
// hex-encoded seed.
func DecryptSeed(encryptedJSON []byte, password string) (string, error) {
	if password == "" {
		return "", errors.New("signing: password must not be empty")
	}

	var stored encryptedSeedJSON
	if err := json.Unmarshal(encryptedJSON, &stored); err != nil {
		return "", fmt.Errorf("signing: parsing encrypted seed JSON: %w", err)
	}
	if stored.Version != currentVersion {
		return "", fmt.Errorf("signing: unsupported version %d", stored.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil {
		return "", fmt.Errorf("signing: decoding salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(stored.Nonce)
	if err != nil {
		return "", fmt.Errorf("signing: decoding nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(stored.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("signing: decoding ciphertext: %w", err)
	}

	derivedKey := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, aesKeyLen, sha256.New)

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return "", fmt.Errorf("signing: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("signing: creating GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("signing: decryption failed (wrong password?): %w", err)
	}

	return hex.EncodeToString(plaintext), nil
}

// LoadSeed resolves a signing seed from the provided configuration.
//
// Resolution order:
//  1. If RawSeed is set, return it.
//  2. If EncryptedSeedPath is set, read the file and decrypt with
//     SeedPassword.
//  3. Otherwise, return an error.
func LoadSeed(cfg SeedConfig) (string, error) {
	if cfg.RawSeed != "" {
		s := strings.TrimSpace(cfg.RawSeed)
		if _, err := hex.DecodeString(s); err != nil {
			return "", fmt.Errorf("signing: RawSeed is not valid hex: %w", err)
		}
		return s, nil
	}

	if cfg.EncryptedSeedPath != "" {
		data, err := os.ReadFile(cfg.EncryptedSeedPath)
		if err != nil {
			return "", fmt.Errorf("signing: reading encrypted seed file: %w", err)
		}
		return DecryptSeed(data, cfg.SeedPassword)
	}

	return "", errors.New("signing: no seed source configured (set RawSeed or EncryptedSeedPath)")
}
