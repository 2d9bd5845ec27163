package auth

import (
	"encoding/base64"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNumericCode(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 256; i++ {
		code, err := generateNumericCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		require.True(t, isSixDigitCode(code), "code %q is not six digits", code)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000, "code %q has a leading zero", code)
		require.LessOrEqual(t, n, 999999)

		seen[code] = true
	}

	// Draws come from a 900000-value space, so 256 of them should be
	// nearly all distinct. Heavy duplication means a broken generator.
	assert.Greater(t, len(seen), 200)
}

func TestGenerateRandomToken(t *testing.T) {
	token, err := generateRandomToken()
	require.NoError(t, err)

	raw, err := base64.URLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	other, err := generateRandomToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestHashToken(t *testing.T) {
	first := hashToken("some-token")
	second := hashToken("some-token")
	other := hashToken("other-token")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64)
	assert.NotContains(t, first, "some-token")
}

func TestIsSixDigitCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{code: "123456", want: true},
		{code: "000000", want: true},
		{code: "999999", want: true},
		{code: "", want: false},
		{code: "12345", want: false},
		{code: "1234567", want: false},
		{code: "12345a", want: false},
		{code: "a23456", want: false},
		{code: "12 456", want: false},
		{code: "12345\n", want: false},
		{code: "-12345", want: false},
		{code: "１２３４５６", want: false}, // full-width digits
	}

	for _, tt := range tests {
		t.Run(strconv.Quote(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, isSixDigitCode(tt.code))
		})
	}
}
