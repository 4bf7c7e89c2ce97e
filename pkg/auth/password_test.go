package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name          string
		password      string
		shouldFail    bool
		errorContains string
	}{
		{name: "valid strong password", password: "SecureP@ss123"},
		{name: "valid with symbols", password: "MyP@ssw0rd!"},
		{name: "valid with multiple special chars", password: "Secure#P@ssw0rd"},
		{name: "too short", password: "Pass@1", shouldFail: true, errorContains: "at least 8 characters"},
		{name: "too long", password: strings.Repeat("Aa1!", 40), shouldFail: true, errorContains: "at most 128 characters"},
		{name: "missing uppercase", password: "securepass@123", shouldFail: true, errorContains: "uppercase"},
		{name: "missing lowercase", password: "SECUREPASS@123", shouldFail: true, errorContains: "lowercase"},
		{name: "missing digit", password: "SecurePass@xyz", shouldFail: true, errorContains: "digit"},
		{name: "missing special character", password: "SecurePass123", shouldFail: true, errorContains: "special character"},
		{name: "common password rejected", password: "Password123!", shouldFail: true, errorContains: "too common"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)

			if !tt.shouldFail {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestValidatePassword_ReportsEveryFailure(t *testing.T) {
	err := ValidatePassword("short")
	require.Error(t, err)

	var ve *PasswordValidationError
	require.ErrorAs(t, err, &ve)
	assert.GreaterOrEqual(t, len(ve.Errors), 3, "short all-lowercase password violates several rules")
}

func TestHashAndComparePassword(t *testing.T) {
	password := "SecureP@ss123"

	hash, err := HashPassword(password)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	assert.NoError(t, ComparePassword(hash, password))
	assert.Error(t, ComparePassword(hash, "WrongPassword123!"))
}

func TestHashPassword_EmptyRejected(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}
