package checksum

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalculator(t *testing.T) *Calculator {
	t.Helper()
	c, err := New("test-secret")
	require.NoError(t, err)
	return c
}

func TestNew_SecretValidation(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptySecret)

	_, err = New(strings.Repeat("k", 65))
	assert.ErrorIs(t, err, ErrSecretTooLong)

	_, err = New(strings.Repeat("k", 64))
	assert.NoError(t, err)
}

func TestCalculate_Deterministic(t *testing.T) {
	c := newCalculator(t)

	first := c.Calculate("abc123")
	second := c.Calculate("abc123")

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestCalculate_DistinctInputs(t *testing.T) {
	c := newCalculator(t)

	seen := make(map[string]string)
	for _, id := range []string{"abc123", "abc124", "ABC123", "abc123 ", "x", "order-1", "order-2"} {
		sum := c.Calculate(id)
		if prev, ok := seen[sum]; ok {
			t.Fatalf("checksum collision between %q and %q", prev, id)
		}
		seen[sum] = id
	}
}

func TestCalculate_DependsOnSecret(t *testing.T) {
	a, err := New("secret-a")
	require.NoError(t, err)
	b, err := New("secret-b")
	require.NoError(t, err)

	assert.NotEqual(t, a.Calculate("abc123"), b.Calculate("abc123"))
}

func TestVerify(t *testing.T) {
	c := newCalculator(t)
	valid := c.Calculate("abc123")

	tests := []struct {
		name      string
		requestID string
		supplied  string
		want      bool
	}{
		{"matching checksum", "abc123", valid, true},
		{"other request id", "abc124", valid, false},
		{"truncated checksum", "abc123", valid[:10], false},
		{"uppercased checksum", "abc123", strings.ToUpper(valid), false},
		{"empty checksum", "abc123", "", false},
		{"empty request id", "", c.Calculate(""), false},
		{"oversized request id", strings.Repeat("r", MaxRequestIDLength+1), c.Calculate(strings.Repeat("r", MaxRequestIDLength+1)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Verify(tt.requestID, tt.supplied))
		})
	}
}
