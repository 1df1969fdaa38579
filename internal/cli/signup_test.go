package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/degreedialog/dialog-go/internal/api"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		wantErr  string
	}{
		{"valid", "hunter22", "hunter22", ""},
		{"exactly at floor", "sixsix", "sixsix", ""},
		{"mismatch", "hunter22", "hunter23", "passwords do not match"},
		{"too short", "five5", "five5", "password must be at least 6 characters"},
		{"both empty", "", "", "password must be at least 6 characters"},
		// Mismatch is reported before length, matching the signup form.
		{"short and mismatched", "a", "b", "passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePassword(tt.password, tt.confirm)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestSignupFailedErr(t *testing.T) {
	friendly := "registration failed: that username or email may already be taken"

	assert.EqualError(t, signupFailedErr(api.ErrUnauthorized), friendly)
	assert.EqualError(t, signupFailedErr(&api.RequestError{Status: 409}), friendly)
	assert.EqualError(t, signupFailedErr(&api.RequestError{Status: 500}),
		"registration failed: request failed: status 500")
}
