package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/splitflow/internal/api"
	"github.com/Veraticus/splitflow/internal/cli"
	"github.com/Veraticus/splitflow/internal/common"
	"github.com/Veraticus/splitflow/internal/format"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/Veraticus/splitflow/internal/session"
	"github.com/Veraticus/splitflow/internal/tui"
	"github.com/spf13/cobra"
)

type credentialInput struct {
	Name     string `validate:"omitempty,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the expense server",
		Long: `Sign in with your email and password. The returned token is stored
locally and sent with every later command until it expires or you log out.

Missing values are prompted for.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuth(cmd, false)
		},
	}

	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password (prompted when omitted)")

	return cmd
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuth(cmd, true)
		},
	}

	cmd.Flags().String("name", "", "display name")
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password (prompted when omitted)")

	return cmd
}

func runAuth(cmd *cobra.Command, register bool) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.requireSignedOut(ctx); err != nil {
		return err
	}

	in, err := readCredentials(ctx, cmd, register)
	if err != nil {
		return err
	}

	var token string
	if register {
		token, err = a.client.Register(ctx, api.Registration{Name: in.Name, Email: in.Email, Password: in.Password})
	} else {
		token, err = a.client.Login(ctx, api.Credentials{Email: in.Email, Password: in.Password})
	}
	if err != nil {
		fallback := tui.MsgLoginFailed
		if register {
			fallback = tui.MsgRegisterFailed
		}
		return errors.New(api.Message(err, fallback))
	}

	if err := a.session.SignIn(token); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	message := tui.MsgLoggedIn
	if register {
		message = tui.MsgRegistered
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(message)) //nolint:forbidigo // User-facing output
	return nil
}

func readCredentials(ctx context.Context, cmd *cobra.Command, register bool) (credentialInput, error) {
	prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	var in credentialInput

	ask := func(flag, label string, secret bool) (string, error) {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			return v, nil
		}
		if secret {
			return prompter.AskSecret(ctx, label)
		}
		return prompter.Ask(ctx, label)
	}

	var err error
	if register {
		if in.Name, err = ask("name", "Name", false); err != nil {
			return in, err
		}
		if err := common.ValidateVar("Name", strings.TrimSpace(in.Name), "required,max=100"); err != nil {
			return in, err
		}
	}
	if in.Email, err = ask("email", "Email", false); err != nil {
		return in, err
	}
	if in.Password, err = ask("password", "Password", true); err != nil {
		return in, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	return in, common.Validate(in)
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.session.HasCredential() {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Not logged in")) //nolint:forbidigo // User-facing output
				return nil
			}
			if err := a.session.SignOut(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Logged out")) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUser(cmd, func(_ context.Context, _ *app, user model.User) error {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatTitle("Welcome, "+displayName(user)))   //nolint:forbidigo // User-facing output
				fmt.Fprintf(out, "  Email: %s\n  ID:    %s\n", user.Email, user.ID) //nolint:forbidigo // User-facing output
				return nil
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored credential without contacting the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			cred, err := a.session.Credential()
			if errors.Is(err, session.ErrNoCredential) {
				fmt.Fprintln(out, cli.FormatInfo("Not logged in")) //nolint:forbidigo // User-facing output
				return nil
			}
			if err != nil {
				return err
			}

			lines := []string{
				fmt.Sprintf("Server:      %s", a.settings.BaseURL),
				fmt.Sprintf("Stored:      %s (%s)", format.Date(cred.IssuedAt), format.Ago(cred.IssuedAt)),
				fmt.Sprintf("Expires:     %s (%s)", format.Date(cred.ExpiresAt), format.Ago(cred.ExpiresAt)),
			}
			if info, err := session.Describe(cred.Token); err == nil {
				if info.Subject != "" {
					lines = append(lines, fmt.Sprintf("User ID:     %s", info.Subject))
				}
				if !info.ExpiresAt.IsZero() {
					lines = append(lines, fmt.Sprintf("Token until: %s", info.ExpiresAt.Local().Format(time.RFC1123)))
				}
			}
			fmt.Fprintln(out, cli.RenderBox("Session", strings.Join(lines, "\n"))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func displayName(u model.User) string {
	if u.Name == "" {
		return "User"
	}
	return u.Name
}
