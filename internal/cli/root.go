// Package cli provides the command-line interface for dialog.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/degreedialog/dialog-go/internal/api"
	"github.com/degreedialog/dialog-go/internal/chat"
	"github.com/degreedialog/dialog-go/internal/config"
	"github.com/degreedialog/dialog-go/internal/credentials"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger, and clients
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	store      *credentials.Store
	client     *api.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dialog",
	Short: "Terminal client for the Degree Dialog college advisor",
	Long: `Dialog is the terminal client for Degree Dialog, an AI college advisor.

Hold persisted, multi-turn conversations about admissions, scholarships,
courses, and campus life; switch between past conversations; and keep the
whole history bound to your account.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)

		store = credentials.NewStore(cfg.CredentialsFile)
		client = api.New(cfg.APIURL, store, cfg.RequestTimeout, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// newControllers wires the conversation and session-list controllers over
// the shared client.
func newControllers() (*chat.Conversation, *chat.SessionList, *chat.Reconciler) {
	recon := chat.NewReconciler(client, logger)
	conv := chat.NewConversation(client, logger)
	list := chat.NewSessionList(recon, cfg.PreviewLength, logger)
	list.OnCleared(conv.Reset)
	conv.OnSessionCreated(func(string) { list.MarkStale() })
	return conv, list, recon
}

// requireAuth gates commands that talk to authenticated endpoints.
func requireAuth() error {
	if !store.Load().Authenticated() {
		return errors.New("not logged in. Run 'dialog login' first")
	}
	return nil
}

// checkAuthErr is the single place a 401 becomes a de-authentication: the
// transport only reports ErrUnauthorized, and this coordinator clears all
// credential state and points the user back at login.
func checkAuthErr(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		if clearErr := store.Clear(); clearErr != nil {
			logger.Warn("failed to clear credentials", "error", clearErr)
		}
		return errors.New("your session has expired. Run 'dialog login' to sign in again")
	}
	return err
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sessionsCmd)
}
