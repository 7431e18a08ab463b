package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/finview/internal/cli"

	"github.com/spf13/cobra"
)

var (
	prefsEmail string
	prefsPush  string
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change notification preferences",
	Long: `Show the account's notification preferences, or change them with
--email and --push (on or off).`,
	Args: cobra.NoArgs,
	RunE: runPrefs,
}

func init() {
	prefsCmd.Flags().StringVar(&prefsEmail, "email", "", "Email notifications: on or off")
	prefsCmd.Flags().StringVar(&prefsPush, "push", "", "Push notifications: on or off")
	rootCmd.AddCommand(prefsCmd)
}

func runPrefs(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	var email, push bool
	var err error
	if flags.Changed("email") {
		if email, err = parseOnOff(prefsEmail); err != nil {
			return fmt.Errorf("--email: %w", err)
		}
	}
	if flags.Changed("push") {
		if push, err = parseOnOff(prefsPush); err != nil {
			return fmt.Errorf("--push: %w", err)
		}
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := e.loader.UserSettings(ctx)
	if err != nil {
		return err
	}
	if flags.Changed("email") || flags.Changed("push") {
		if flags.Changed("email") {
			s.EmailNotifications = email
		}
		if flags.Changed("push") {
			s.PushNotifications = push
		}
		if err := e.loader.UpdateUserSettings(ctx, s); err != nil {
			return err
		}
		fmt.Println("  Preferences saved.")
	}

	fmt.Println()
	fmt.Printf("  Email notifications: %s\n", onOff(s.EmailNotifications))
	fmt.Printf("  Push notifications:  %s\n", onOff(s.PushNotifications))
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %q", s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return cli.Muted("off")
}
