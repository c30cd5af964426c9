package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/uhakiki/verification-engine/internal/logging"
	"github.com/uhakiki/verification-engine/internal/verrors"
)

func newTestService(store Store) *Service {
	s := NewService(store, logging.NewLogger("test"))
	s.cost = bcrypt.MinCost
	return s
}

func TestGenerateAndValidateKey(t *testing.T) {
	store := NewMemoryStore()
	companyID := store.AddCompany("ops@acme.example")
	svc := newTestService(store)

	rawKey, err := svc.GenerateKey(context.Background(), "ops@acme.example")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rawKey, LiveKeyPrefix))

	gotCompany, err := svc.ValidateKey(context.Background(), rawKey)
	require.NoError(t, err)
	assert.Equal(t, companyID, gotCompany)
}

func TestGenerateKeyUnknownCompany(t *testing.T) {
	svc := newTestService(NewMemoryStore())

	_, err := svc.GenerateKey(context.Background(), "nobody@example.com")
	assert.Error(t, err)
}

func TestValidateKeyRejectsTamperedKey(t *testing.T) {
	store := NewMemoryStore()
	store.AddCompany("ops@acme.example")
	svc := newTestService(store)

	rawKey, err := svc.GenerateKey(context.Background(), "ops@acme.example")
	require.NoError(t, err)

	// Same prefix, different suffix: prefix lookup succeeds, hash check fails.
	tampered := rawKey[:len(rawKey)-4] + "XXXX"
	_, err = svc.ValidateKey(context.Background(), tampered)

	var svcErr *verrors.Error
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, verrors.CodeInvalidAPIKey, svcErr.Code)
}

func TestValidateKeyRejectsRevokedKey(t *testing.T) {
	store := NewMemoryStore()
	companyID := store.AddCompany("ops@acme.example")
	svc := newTestService(store)

	rawKey, err := svc.GenerateKey(context.Background(), "ops@acme.example")
	require.NoError(t, err)

	store.Deactivate(companyID)

	_, err = svc.ValidateKey(context.Background(), rawKey)
	var svcErr *verrors.Error
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, verrors.CodeInvalidAPIKey, svcErr.Code)
}

func TestValidateKeyMissing(t *testing.T) {
	svc := newTestService(NewMemoryStore())

	_, err := svc.ValidateKey(context.Background(), "")
	var svcErr *verrors.Error
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, verrors.CodeMissingAPIKey, svcErr.Code)
}

func TestValidateKeyWithoutStore(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.ValidateKey(context.Background(), LiveKeyPrefix+"whatever")
	var svcErr *verrors.Error
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, verrors.CodeInvalidAPIKey, svcErr.Code)
}
