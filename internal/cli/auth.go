package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	registerCmd.Flags().StringP("password", "p", "", "Password for the new account")
	loginCmd.Flags().StringP("password", "p", "", "Password")
}

var registerCmd = &cobra.Command{
	Use:   "register USERNAME",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegister,
}

func runRegister(cmd *cobra.Command, args []string) error {
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		return fmt.Errorf("use --password to set a password")
	}

	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	if err := c.do("POST", "/api/auth/register", map[string]string{
		"username": args[0], "password": password,
	}, nil); err != nil {
		return err
	}
	fmt.Printf("Account %q created. Log in with: spire login %s\n", args[0], args[0])
	return nil
}

var loginCmd = &cobra.Command{
	Use:   "login USERNAME",
	Short: "Log in and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		return fmt.Errorf("use --password to supply your password")
	}

	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do("POST", "/api/auth/login", map[string]string{
		"username": args[0], "password": password,
	}, &out); err != nil {
		return err
	}
	if err := saveToken(out.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Printf("Logged in as %q.\n", args[0])
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and discard the session token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	// Revoke server-side first; the local token is removed regardless.
	err = c.do("POST", "/api/auth/logout", nil, nil)
	clearToken()
	if err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}
