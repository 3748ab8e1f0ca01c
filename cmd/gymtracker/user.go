// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gymtracker/gymtracker/internal/auth"
)

// newUserCmd creates the user subcommand. Passwords, recovery codes and
// tokens are read from standard input, one per line, so they never appear
// in the process list or shell history.
func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Register, log in and recover accounts",
	}
	cmd.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newRequestRecoveryCmd(a),
		newChangePasswordCmd(a),
		newWhoamiCmd(a),
	)
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var req auth.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account (password on stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := newSecretReader(cmd)
			password, err := in.read("Password")
			if err != nil {
				return err
			}
			req.Password = password

			return a.withService(cmd.Context(), func(ctx context.Context, svc CredentialService) error {
				resp, err := svc.Register(ctx, req)
				if err != nil {
					return err
				}
				cmd.Printf("Registered %s <%s>\n", resp.Name, resp.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name (required)")
	cmd.Flags().IntVar(&req.BirthYear, "birth-year", 0, "year of birth (required)")
	cmd.Flags().StringVar(&req.Gender, "gender", string(auth.GenderUnspecified), "female, male, other or unspecified")
	for _, name := range []string{"email", "name", "birth-year"} {
		_ = cmd.MarkFlagRequired(name) //nolint:errcheck // flag defined above
	}
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a session token (password on stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := newSecretReader(cmd).read("Password")
			if err != nil {
				return err
			}
			return a.withService(cmd.Context(), func(ctx context.Context, svc CredentialService) error {
				resp, err := svc.Login(ctx, auth.LoginRequest{Email: email, Password: password})
				if err != nil {
					return err
				}
				cmd.Println(resp.Token)
				cmd.Printf("expires: %s\n", resp.ExpiresAt.UTC().Format(time.RFC3339))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email") //nolint:errcheck // flag defined above
	return cmd
}

func newRequestRecoveryCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "request-recovery",
		Short: "Send a password recovery code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(ctx context.Context, svc CredentialService) error {
				if err := svc.RequestPasswordRecovery(ctx, auth.RecoveryRequest{Email: email}); err != nil {
					return err
				}
				cmd.Printf("If an account exists for %s, a recovery code has been sent.\n", email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email") //nolint:errcheck // flag defined above
	return cmd
}

func newChangePasswordCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Set a new password with a recovery code (code, then password, on stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := newSecretReader(cmd)
			code, err := in.read("Recovery code")
			if err != nil {
				return err
			}
			password, err := in.read("New password")
			if err != nil {
				return err
			}

			return a.withService(cmd.Context(), func(ctx context.Context, svc CredentialService) error {
				resp, err := svc.ChangePassword(ctx, auth.ChangePasswordRequest{
					Email:        email,
					NewPassword:  password,
					RecoveryCode: code,
				})
				if err != nil {
					return err
				}
				if !resp.Success {
					return oops.Code("PASSWORD_NOT_CHANGED").With("email", email).Errorf("%s", resp.Message)
				}
				cmd.Println(resp.Message)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email") //nolint:errcheck // flag defined above
	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account a session token belongs to (token on stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := newSecretReader(cmd).read("Token")
			if err != nil {
				return err
			}
			return a.withService(cmd.Context(), func(ctx context.Context, svc CredentialService) error {
				user, err := svc.Authenticate(ctx, token)
				if err != nil {
					return err
				}
				cmd.Printf("id: %s\nemail: %s\nname: %s\n", user.ID, user.Email, user.Name)
				return nil
			})
		},
	}
}

func (a *app) withService(ctx context.Context, fn func(context.Context, CredentialService) error) error {
	svc, closeFn, err := a.deps.service(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(ctx, svc)
}

// secretReader reads one secret per line from the command's input.
type secretReader struct {
	r      *bufio.Reader
	prompt io.Writer
}

func newSecretReader(cmd *cobra.Command) *secretReader {
	return &secretReader{r: bufio.NewReader(cmd.InOrStdin()), prompt: cmd.ErrOrStderr()}
}

func (s *secretReader) read(label string) (string, error) {
	fmt.Fprintf(s.prompt, "%s: ", label)
	line, err := s.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", oops.Code("SECRET_READ_FAILED").With("field", strings.ToLower(label)).Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
