package revieweat_test

import (
	"testing"

	revieweat "github.com/revieweat/server"
	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := revieweat.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, revieweat.ErrNoEmptyString)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)

			err = revieweat.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestHashPasswordSaltsEveryHash(t *testing.T) {
	password := "same-password"

	first, err := revieweat.HashPassword(password)
	assert.NoError(t, err)

	second, err := revieweat.HashPassword(password)
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)

	assert.NoError(t, revieweat.ComparePasswordAndHash(password, first))
	assert.NoError(t, revieweat.ComparePasswordAndHash(password, second))
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := revieweat.HashPassword("correct-password")
	assert.NoError(t, err)

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, revieweat.ComparePasswordAndHash("correct-password", hash))
	})

	t.Run("wrong password", func(t *testing.T) {
		err := revieweat.ComparePasswordAndHash("wrong-password", hash)
		assert.Error(t, err)
		assert.ErrorIs(t, err, revieweat.ErrMismatchedHashAndPassword)
	})

	t.Run("garbage hash", func(t *testing.T) {
		err := revieweat.ComparePasswordAndHash("correct-password", "not-a-bcrypt-hash")
		assert.Error(t, err)
	})
}
