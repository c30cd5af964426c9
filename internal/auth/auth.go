/**
 * API key issuance and validation for integrator companies.
 *
 * Keys look like uh_live_<token>. Only a bcrypt hash is stored; the first ten
 * characters are kept as a plaintext prefix so validation is a single indexed
 * lookup instead of a scan over every hash.
 */

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/uhakiki/verification-engine/internal/logging"
	"github.com/uhakiki/verification-engine/internal/verrors"
)

const (
	// LiveKeyPrefix marks production keys.
	LiveKeyPrefix = "uh_live_"

	// lookupPrefixLen is how many leading characters are stored in plaintext
	// for fast lookup.
	lookupPrefixLen = 10

	// rawTokenBytes is the entropy behind each key.
	rawTokenBytes = 32
)

// Key is a stored API key record. Raw key material never appears here.
type Key struct {
	ID        string
	CompanyID string
	Prefix    string
	Hash      string
	Active    bool
	CreatedAt time.Time
}

// Store persists companies' API keys.
type Store interface {
	CompanyIDByEmail(ctx context.Context, email string) (string, error)
	InsertKey(ctx context.Context, key *Key) error
	ActiveKeysByPrefix(ctx context.Context, prefix string) ([]Key, error)
}

// Service issues and validates API keys.
type Service struct {
	store Store
	cost  int
	log   *logging.Logger
}

// NewService builds the auth service. store may be nil when the platform runs
// without a database; validation then rejects everything.
func NewService(store Store, log *logging.Logger) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost, log: log}
}

// GenerateKey mints a key for the company registered under email and stores
// its hash. The raw key is returned exactly once and never persisted.
func (s *Service) GenerateKey(ctx context.Context, email string) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("key generation requires a configured database")
	}

	companyID, err := s.store.CompanyIDByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("company not registered: %w", err)
	}

	token := make([]byte, rawTokenBytes)
	if _, err := rand.Read(token); err != nil {
		return "", fmt.Errorf("failed to generate key material: %w", err)
	}
	rawKey := LiveKeyPrefix + base64.RawURLEncoding.EncodeToString(token)

	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}

	key := &Key{
		CompanyID: companyID,
		Prefix:    rawKey[:lookupPrefixLen],
		Hash:      string(hash),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertKey(ctx, key); err != nil {
		return "", fmt.Errorf("failed to store key: %w", err)
	}

	s.log.Info("API key issued", "company_id", companyID, "prefix", key.Prefix)
	return rawKey, nil
}

// ValidateKey resolves a raw API key to its company ID.
func (s *Service) ValidateKey(ctx context.Context, rawKey string) (string, error) {
	if rawKey == "" {
		return "", verrors.NewMissingAPIKey()
	}

	if len(rawKey) < lookupPrefixLen {
		return "", verrors.NewInvalidAPIKey("malformed key")
	}

	if s.store == nil {
		return "", verrors.NewInvalidAPIKey("no key store configured")
	}

	keys, err := s.store.ActiveKeysByPrefix(ctx, rawKey[:lookupPrefixLen])
	if err != nil {
		return "", verrors.NewStorageFailed("", err)
	}

	for _, key := range keys {
		if bcrypt.CompareHashAndPassword([]byte(key.Hash), []byte(rawKey)) == nil {
			return key.CompanyID, nil
		}
	}

	return "", verrors.NewInvalidAPIKey("unknown or revoked key")
}
