package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"filedesk/internal/session"
)

var (
	loginPassword  string
	signupName     string
	signupPassword string
	signupPhone    string
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and store the session locally",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup <email>",
	Short: "Register a new account",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when omitted)")
	signupCmd.Flags().StringVar(&signupName, "name", "", "full name")
	signupCmd.Flags().StringVarP(&signupPassword, "password", "p", "", "password (prompted when omitted)")
	signupCmd.Flags().StringVar(&signupPhone, "phone", "", "phone number")
}

func runLogin(cmd *cobra.Command, args []string) error {
	email := args[0]

	password := loginPassword
	if password == "" {
		var err error
		password, err = promptLine("Password: ")
		if err != nil {
			return err
		}
	}

	sess, err := cli.filings.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	name := sess.User.Name
	if name == "" {
		name = sess.User.Email
	}
	fmt.Printf("Signed in as %s\n", name)
	if exp := sess.ExpiresAt(); !exp.IsZero() {
		fmt.Printf("Session expires %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	email := args[0]

	password := signupPassword
	if password == "" {
		var err error
		password, err = promptLine("Password: ")
		if err != nil {
			return err
		}
	}

	profile := map[string]any{
		"email":    email,
		"password": password,
	}
	if signupName != "" {
		profile["name"] = signupName
	}
	if signupPhone != "" {
		profile["phone"] = signupPhone
	}

	sess, err := cli.filings.Signup(cmd.Context(), profile)
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Println("Account created. Run 'filedesk login' to sign in.")
		return nil
	}

	fmt.Printf("Account created, signed in as %s\n", sess.User.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := cli.filings.Logout(); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	sess, err := cli.sessions.Current()
	if errors.Is(err, session.ErrNoSession) {
		fmt.Println("Not signed in.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Email: %s\n", sess.User.Email)
	if sess.User.Name != "" {
		fmt.Printf("Name:  %s\n", sess.User.Name)
	}
	if sess.User.Role != "" {
		fmt.Printf("Role:  %s\n", sess.User.Role)
	}
	switch exp := sess.ExpiresAt(); {
	case exp.IsZero():
	case sess.Expired():
		fmt.Printf("Session expired %s\n", exp.Local().Format(time.RFC1123))
	default:
		fmt.Printf("Session expires %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
