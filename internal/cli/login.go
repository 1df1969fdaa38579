package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/degreedialog/dialog-go/internal/api"
	"github.com/degreedialog/dialog-go/internal/credentials"
)

var loginUsername string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your Degree Dialog account",
	Long: `Sign in with your username (or email) and password.

On success the issued tokens are stored locally and every later command
runs against your account.

Examples:
  dialog login
  dialog login --username maria`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username or email")
}

func runLogin(cmd *cobra.Command, args []string) error {
	username := loginUsername
	if username == "" {
		var err error
		username, err = promptLine("Username or email")
		if err != nil {
			return err
		}
	}
	if username == "" {
		return errors.New("a username is required")
	}

	password, err := promptPassword("Password")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("a password is required")
	}

	ctx := context.Background()
	resp, err := client.Login(ctx, username, password)
	if err != nil {
		return loginFailedErr(err)
	}

	if err := saveCredentials(resp); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	fmt.Printf("Welcome back, %s!\n", resp.User.Username)
	return nil
}

// loginFailedErr maps auth failures to a friendly message. Bad credentials
// come back as a 401, which the transport reports as ErrUnauthorized rather
// than a RequestError, so both are handled here.
func loginFailedErr(err error) error {
	var reqErr *api.RequestError
	if errors.Is(err, api.ErrUnauthorized) ||
		(errors.As(err, &reqErr) && reqErr.Status >= 400 && reqErr.Status < 500) {
		return errors.New("login failed: check your username and password")
	}
	return fmt.Errorf("login failed: %w", err)
}

// saveCredentials persists the issued tokens and identity in one write.
func saveCredentials(resp *api.AuthResponse) error {
	return store.Save(credentials.Credential{
		AccessToken:  resp.Tokens.Access,
		RefreshToken: resp.Tokens.Refresh,
		User:         &resp.User,
	})
}
