package main

import (
	"fmt"
	"os"
	"time"

	"callbooker/internal/auth"
	"callbooker/internal/config"
	"callbooker/internal/rbac"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API access tokens",
	}
	cmd.AddCommand(newTokenIssueCmd())
	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var (
		secret  string
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for an API client",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := secretFlag(secret, "JWT_SECRET")
			if err != nil {
				return err
			}
			switch role {
			case rbac.RoleAdmin, rbac.RoleIntegration, rbac.RoleReadOnly:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			m, err := auth.NewManager(config.AuthConfig{
				JWTSecret:   key,
				JWTIssuer:   os.Getenv("JWT_ISSUER"),
				JWTAudience: os.Getenv("JWT_AUDIENCE"),
			})
			if err != nil {
				return err
			}
			tok, err := m.Issue(time.Now(), subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "JWT secret (default $JWT_SECRET)")
	cmd.Flags().StringVar(&subject, "subject", "", "token subject, e.g. the client name")
	cmd.Flags().StringVar(&role, "role", rbac.RoleIntegration, "admin, integration or readonly")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
