package service

import (
	"strings"
	"testing"

	"wallet-settlement/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHashService_Verify(t *testing.T) {
	svc := NewBcryptHashService(bcrypt.MinCost)
	hash, err := svc.Hash("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$04$"))

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
		wantErr  bool
	}{
		{"match", "correct horse battery", hash, true, false},
		{"mismatch", "Correct horse battery", hash, false, false},
		{"empty password", "", hash, false, false},
		{"malformed hash", "correct horse battery", "not-a-bcrypt-hash", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := svc.Verify(tt.password, tt.hash)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestBcryptHashService_SaltsDiffer(t *testing.T) {
	svc := NewBcryptHashService(bcrypt.MinCost)

	a, err := svc.Hash("same-password")
	require.NoError(t, err)
	b, err := svc.Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBcryptHashService_TooLong(t *testing.T) {
	svc := NewBcryptHashService(bcrypt.MinCost)

	_, err := svc.Hash(strings.Repeat("é", 40))
	assert.True(t, apperror.HasCode(err, "REQ_001"))
}

func TestBcryptHashService_DefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHashService(0).cost)
}
