package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rohit5932/consult-smart-portal/internal/validate"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

func TestPhoneNormalization(t *testing.T) {
	t.Run("bare national number gets default country code", func(t *testing.T) {
		got, err := validate.Phone("9876543210", "1")
		require.NoError(t, err)
		assert.Equal(t, "+19876543210", got)
	})

	t.Run("international number with spaces is compacted", func(t *testing.T) {
		got, err := validate.Phone("+91 98765 43210", "1")
		require.NoError(t, err)
		assert.Equal(t, "+919876543210", got)
	})

	t.Run("normalization is idempotent", func(t *testing.T) {
		inputs := []string{"9876543210", "+91 98765 43210", "(987) 654-3210", "+1-987-654-3210"}
		for _, input := range inputs {
			once, err := validate.Phone(input, "1")
			require.NoError(t, err, input)
			twice, err := validate.Phone(once, "1")
			require.NoError(t, err, once)
			assert.Equal(t, once, twice, input)
		}
	})

	t.Run("fewer than ten digits fails pre-flight", func(t *testing.T) {
		_, err := validate.Phone("12345", "1")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})
}

func TestEmail(t *testing.T) {
	got, err := validate.Email("  User@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", got)

	for _, bad := range []string{"", "plain", "a@b", "a @b.com", "@b.com"} {
		_, err := validate.Email(bad)
		assert.Error(t, err, bad)
	}
}

func TestPassword(t *testing.T) {
	assert.NoError(t, validate.Password("secret"))
	err := validate.Password("short")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "WEAK_CREDENTIAL"))
}

func TestOTP(t *testing.T) {
	assert.NoError(t, validate.OTP("123456"))
	for _, bad := range []string{"", "12345", "1234567", "12a456"} {
		assert.Error(t, validate.OTP(bad), bad)
	}
}
