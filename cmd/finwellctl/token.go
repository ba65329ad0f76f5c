package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	jwttoken "finwell/internal/jwt_token"
	id "finwell/pkg/domain"
)

func newTokenCmd() *cobra.Command {
	var (
		signingKey string
		operator   bool
		ttl        time.Duration
	)
	cmd := &cobra.Command{
		Use:     "token <identity>",
		Short:   "Mint a bearer token for an identity",
		Example: "  finwellctl token 0x00000000000000000000000000000000000000aa --ttl 2h",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := id.ParseIdentity(args[0])
			if err != nil {
				return err
			}
			if signingKey == "" {
				return fmt.Errorf("signing key is required (--signing-key or $FINWELL_JWT_SIGNING_KEY)")
			}
			svc := jwttoken.NewJWTService(signingKey, jwttoken.Issuer, jwttoken.Audience)
			token, err := svc.GenerateAccessToken(subject, operator, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&signingKey, "signing-key", os.Getenv("FINWELL_JWT_SIGNING_KEY"), "HMAC signing key shared with the server")
	cmd.Flags().BoolVar(&operator, "operator", false, "grant operator rights")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
