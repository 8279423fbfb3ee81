package main

import (
	"fmt"

	"flux/internal/auth"
	"flux/internal/styles"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in via device flow",
	Long:  "Requests a device code from the auth server, shows the verification URL and code, and waits for approval in the browser.",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := setup(false, false)
	if err != nil {
		return err
	}

	client := auth.NewClient(a.cfg.Server.URL)
	session, err := client.Login(cmd.Context(), a.configDir, func(da *auth.DeviceAuth) {
		fmt.Println(styles.TitleStyle.Render("Device Login"))
		fmt.Println("Visit: " + da.VerificationURI)
		fmt.Println("Code:  " + styles.SuccessStyle.Render(da.UserCode))
		fmt.Println()
		fmt.Println(styles.InfoStyle("Waiting for approval..."))
	})
	if err != nil {
		return err
	}

	name := session.Name
	if name == "" {
		name = session.Email
	}
	fmt.Println(styles.SuccessStyle.Render("Logged in as " + name))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := setup(false, false)
	if err != nil {
		return err
	}

	if err := auth.ClearSession(a.configDir); err != nil {
		return err
	}
	fmt.Println(styles.SuccessStyle.Render("Logged out."))
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := setup(true, false)
	if err != nil {
		return err
	}

	fmt.Println("User:  " + a.session.UserID)
	if a.session.Name != "" {
		fmt.Println("Name:  " + a.session.Name)
	}
	if a.session.Email != "" {
		fmt.Println("Email: " + a.session.Email)
	}
	return nil
}
