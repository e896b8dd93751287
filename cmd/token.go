package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/identity"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development ID token",
	Long:  `Issue an ID token signed with the configured secret, for signing in against a local server`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		tokens := identity.NewJWTTokens(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.JWTAudience, cfg.Security.TokenDuration)
		token, err := tokens.Issue(tokenUID, tokenEmail)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Println(token)
	},
}

var (
	tokenUID   string
	tokenEmail string
)

func withUser(ctx context.Context, uid string) context.Context {
	return internal.ContextWithUserID(ctx, uid)
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUID, "uid", "admin-1", "Subject of the token")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "admin@genops.dev", "Email claim of the token")

	rootCmd.AddCommand(tokenCmd)
}
