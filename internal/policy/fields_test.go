package policy

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		login string
		ok    bool
	}{
		{"alice@example.com", true},
		{"a.b+tag@host-name.io", true},
		{"", false},
		{"   ", false},
		{"alice", false},
		{"alice@example", false},
		{"alice@sub.example.com", false},
		{"alice@example.c", false},
	}
	for _, tt := range tests {
		t.Run(tt.login, func(t *testing.T) {
			err := ValidateLogin(tt.login)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, common.ErrValidation), "got %v", err)
		})
	}
}

func TestValidatePostalCode(t *testing.T) {
	tests := []struct {
		code string
		msg  string
	}{
		{"75001", ""},
		{"01000", ""},
		{"20090", ""},
		{"97400", ""},
		{"98000", ""},
		{"", "Postal code cannot be empty"},
		{"7500", "Postal code must contain 5 digits"},
		{"7500A", "Postal code must contain 5 digits"},
		{"00999", "Invalid French postal code"},
		{"96000", "Invalid French postal code"},
		{"97700", "Invalid French postal code"},
		{"98900", "Invalid French postal code"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := ValidatePostalCode(tt.code)
			if tt.msg == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			if assert.True(t, errors.As(err, &ve)) {
				assert.Equal(t, tt.msg, ve.Message)
				assert.Equal(t, "postal_code", ve.Field)
			}
		})
	}
}
