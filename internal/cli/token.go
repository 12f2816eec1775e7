package cli

import (
	"fmt"
	"time"

	"nearest-departures/internal/domain/user"
	"nearest-departures/internal/general/config"
	"nearest-departures/internal/general/jwt"

	"github.com/spf13/cobra"
)

// GenerateUserToken mints a board token for a user.
//
// Typical use (dev-only):
//
//	token, _, err := cli.GenerateUserToken(secret, 2*time.Hour, "monitor-1", "VIEWER")
func GenerateUserToken(secret string, ttl time.Duration, userID string, roleStr string) (string, jwt.Claims, error) {
	role, err := user.ParseRole(roleStr)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("invalid role %q: %w", roleStr, err)
	}

	mgr := jwt.NewManager(secret, ttl)
	token, claims, err := mgr.IssueUserToken(userID, role)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("issue token: %w", err)
	}
	return token, *claims, nil
}

func newTokenCommand(opts *Options) *cobra.Command {
	var (
		userID string
		role   string
		secret string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a JWT for the departure board (dev only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ttl := 2 * time.Hour
			if secret == "" {
				// the configured key only matches the display service when JWT_SECRET is set
				cfg, err := config.LoadFromFile(opts.ConfigPath)
				if err != nil {
					return err
				}
				secret, ttl = cfg.JWT.SecretKey, cfg.JWT.TTL
			}

			token, claims, err := GenerateUserToken(secret, ttl, userID, role)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "TOKEN:")
			fmt.Fprintln(out, token)
			fmt.Fprintln(out, "\nCLAIMS:")
			fmt.Fprintf(out, "  sub:  %s\n", claims.Subject)
			fmt.Fprintf(out, "  role: %s\n", claims.Role)
			fmt.Fprintf(out, "  iat:  %s\n", claims.IssuedAt.Time.UTC().Format(time.RFC3339))
			fmt.Fprintf(out, "  exp:  %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "board-viewer", "Subject of the token")
	cmd.Flags().StringVar(&role, "role", user.RoleViewer.String(), "User role: VIEWER | OPERATOR")
	cmd.Flags().StringVar(&secret, "secret", "", "JWT HMAC secret (HS256); defaults to the configured key")
	return cmd
}
