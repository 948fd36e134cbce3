package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "homeloan/pkg/domain-errors"
)

func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseMortgageID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseMortgageID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseMortgageID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParseMortgageID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, MortgageID(raw), id)
		assert.Equal(t, raw.String(), id.String())
	})
}

func TestParseID_HostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE mortgages;--", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseApplicationID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	valid := uuid.New().String()
	parsers := map[string]func(string) error{
		"application": func(s string) error { _, err := ParseApplicationID(s); return err },
		"mortgage":    func(s string) error { _, err := ParseMortgageID(s); return err },
		"user":        func(s string) error { _, err := ParseUserID(s); return err },
		"bank":        func(s string) error { _, err := ParseBankID(s); return err },
		"property":    func(s string) error { _, err := ParsePropertyID(s); return err },
	}

	for name, parse := range parsers {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, parse(valid))
			for _, bad := range []string{"", "invalid", uuid.Nil.String()} {
				assert.Error(t, parse(bad), "input %q", bad)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("reviewer")
	require.NoError(t, err)
	assert.Equal(t, RoleReviewer, r)

	_, err = ParseRole("superuser")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestIDsEncodeAsText(t *testing.T) {
	type doc struct {
		Mortgage MortgageID `json:"mortgage"`
		Buyer    UserID     `json:"buyer"`
	}
	in := doc{Mortgage: NewMortgageID(), Buyer: UserID(uuid.New())}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), in.Mortgage.String())

	var out doc
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}
