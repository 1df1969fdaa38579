package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/degreedialog/dialog-go/internal/api"
)

// minPasswordLength matches the floor enforced by the registration form.
const minPasswordLength = 6

var signupCmd = &cobra.Command{
	Use:     "signup",
	Aliases: []string{"register"},
	Short:   "Create a Degree Dialog account",
	Long: `Create a new account and sign in.

You will be asked for a username, an email address, and a password
(minimum 6 characters, entered twice).`,
	Args: cobra.NoArgs,
	RunE: runSignup,
}

func runSignup(cmd *cobra.Command, args []string) error {
	username, err := promptLine("Username")
	if err != nil {
		return err
	}
	if username == "" {
		return errors.New("a username is required")
	}

	email, err := promptLine("Email")
	if err != nil {
		return err
	}
	if email == "" {
		return errors.New("an email address is required")
	}

	password, err := promptPassword("Password")
	if err != nil {
		return err
	}
	confirmPassword, err := promptPassword("Confirm password")
	if err != nil {
		return err
	}

	// Local validation happens before any network call.
	if err := validatePassword(password, confirmPassword); err != nil {
		return err
	}

	ctx := context.Background()
	resp, err := client.Register(ctx, username, email, password)
	if err != nil {
		return signupFailedErr(err)
	}

	if err := saveCredentials(resp); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	fmt.Printf("Account created. Welcome, %s!\n", resp.User.Username)
	return nil
}

// signupFailedErr maps registration rejections (4xx, including a 401
// reported as ErrUnauthorized) to a friendly message.
func signupFailedErr(err error) error {
	var reqErr *api.RequestError
	if errors.Is(err, api.ErrUnauthorized) ||
		(errors.As(err, &reqErr) && reqErr.Status >= 400 && reqErr.Status < 500) {
		return errors.New("registration failed: that username or email may already be taken")
	}
	return fmt.Errorf("registration failed: %w", err)
}

// validatePassword enforces the signup form rules: confirmation must match
// and the password must meet the length floor.
func validatePassword(password, confirmPassword string) error {
	if password != confirmPassword {
		return errors.New("passwords do not match")
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}
