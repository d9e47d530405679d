package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/calendarserver/caldav-mcp/internal/config"
	"github.com/calendarserver/caldav-mcp/internal/httpserver"
	"github.com/calendarserver/caldav-mcp/internal/logging"
	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/calendarserver/caldav-mcp/internal/passwordhash"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "caldav-server",
		Short: "CalDAV server with an MCP control surface",
	}

	rootCmd.AddCommand(
		serveCmd(),
		createUserCmd(),
		resetPasswordCmd(),
		listUsersCmd(),
		createTokenCmd(),
		listTokensCmd(),
		deleteTokenCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the CalDAV and MCP HTTP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger := logging.New(cfg.LogLevel)

			srv, cleanup, err := httpserver.NewServer(cfg, logger)
			if err != nil {
				return fmt.Errorf("server init: %w", err)
			}
			defer cleanup()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			ch := make(chan os.Signal, 1)
			signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-ch:
				logger.Info().Msg("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func createUserCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}
			ctx := context.Background()
			store, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			hash, err := passwordhash.Hash(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			var emailPtr *string
			if email != "" {
				emailPtr = &email
			}
			user, err := store.CreateUser(ctx, username, emailPtr, hash)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Printf("created user %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "unique username")
	cmd.Flags().StringVar(&email, "email", "", "optional unique email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	return cmd
}

func resetPasswordCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Reset a user's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}
			ctx := context.Background()
			store, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := store.GetUserByUsername(ctx, username)
			if err != nil {
				return fmt.Errorf("lookup user: %w", err)
			}
			if user == nil {
				return fmt.Errorf("no such user: %s", username)
			}
			hash, err := passwordhash.Hash(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			if err := store.SetUserPassword(ctx, user.ID, hash); err != nil {
				return fmt.Errorf("set password: %w", err)
			}
			fmt.Printf("password reset for %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	return cmd
}

func listUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			users, err := store.ListUsers(ctx)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			for _, u := range users {
				email := ""
				if u.Email != nil {
					email = *u.Email
				}
				fmt.Printf("%s\t%s\t%s\n", u.ID, u.Username, email)
			}
			return nil
		},
	}
}

func createTokenCmd() *cobra.Command {
	var username, name string
	var expiresIn time.Duration
	cmd := &cobra.Command{
		Use:   "create-token",
		Short: "Create an MCP bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			ctx := context.Background()
			store, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := store.GetUserByUsername(ctx, username)
			if err != nil {
				return fmt.Errorf("lookup user: %w", err)
			}
			if user == nil {
				return fmt.Errorf("no such user: %s", username)
			}

			var expiresAt *time.Time
			if expiresIn > 0 {
				t := time.Now().UTC().Add(expiresIn)
				expiresAt = &t
			}

			raw, tok, err := store.CreateToken(ctx, user.ID, name, expiresAt)
			if err != nil {
				return fmt.Errorf("create token: %w", err)
			}
			fmt.Printf("token id: %s\ntoken:    %s\n", tok.ID, raw)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "owning username")
	cmd.Flags().StringVar(&name, "name", "", "token label")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "expiry duration, e.g. 720h (0 = never)")
	return cmd
}

func listTokensCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "list-tokens",
		Short: "List a user's MCP tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			ctx := context.Background()
			store, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := store.GetUserByUsername(ctx, username)
			if err != nil {
				return fmt.Errorf("lookup user: %w", err)
			}
			if user == nil {
				return fmt.Errorf("no such user: %s", username)
			}

			toks, err := store.ListTokens(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("list tokens: %w", err)
			}
			for _, t := range toks {
				expiry := "never"
				if t.ExpiresAt != nil {
					expiry = t.ExpiresAt.Format(time.RFC3339)
				}
				fmt.Printf("%s\t%s\t%s\n", t.ID, t.Name, expiry)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "owning username")
	return cmd
}

func deleteTokenCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "delete-token",
		Short: "Revoke an MCP token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id is required")
			}
			ctx := context.Background()
			store, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := store.DeleteToken(ctx, id); err != nil {
				return fmt.Errorf("delete token: %w", err)
			}
			fmt.Printf("deleted token %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "token id")
	return cmd
}

func openStore(ctx context.Context) (model.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.LogLevel)
	store, err := httpserver.OpenStore(ctx, cfg.Storage.DatabaseURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return store, func() { store.Close() }, nil
}
