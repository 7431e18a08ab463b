package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/finview/internal/config"
	"github.com/theirongolddev/finview/internal/log"
	"github.com/theirongolddev/finview/internal/session"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	loginUsername      string
	loginPasswordStdin bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the backend and store the access token",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (defaults to the last one used)")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if e.store == nil {
		return errors.New("local store unavailable, cannot save the token")
	}

	username := loginUsername
	if username == "" {
		username = e.cfg.Backend.Username
	}
	var password string

	if loginPasswordStdin {
		if username == "" {
			return errors.New("--username is required with --password-stdin")
		}
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	} else {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Username").Value(&username).Validate(notEmpty("username")),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password).
					Validate(notEmpty("password")),
			).Title("Sign in to " + e.client.BaseURL()),
		)
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	token, err := e.client.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := e.session.Set(token); err != nil {
		return err
	}

	// Remember the username; reload so flag overrides are not persisted.
	if cfg, err := config.Load(); err == nil && cfg.Backend.Username != username {
		cfg.Backend.Username = strings.TrimSpace(username)
		if err := config.Save(cfg); err != nil {
			e.log.Warn("saving username failed", log.FieldError, err)
		}
	}

	fmt.Printf("  Signed in as %s", username)
	if id, err := e.session.UserID(); err == nil {
		fmt.Printf(" (user %s)", id)
	}
	fmt.Println()
	if os.Getenv(session.EnvToken) != "" {
		fmt.Printf("  Note: %s is set and takes precedence over the stored token.\n", session.EnvToken)
	}
	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if !e.session.Authenticated() {
		fmt.Println("  Not signed in.")
		return nil
	}
	if err := e.session.Clear(); err != nil {
		return err
	}
	fmt.Println("  Signed out.")
	return nil
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
