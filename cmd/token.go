package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"todo-service.com/todo-service/internal/constants"
	middleware "todo-service.com/todo-service/internal/http/middlewares"
)

var tokenRole string

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Mint a bearer token for local use",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := bootstrap()
		if err != nil {
			return err
		}

		tokens := middleware.NewTokenManager(middleware.TokenConfig{
			Secret: cfg.JWTSecret,
			Issuer: cfg.JWTIssuer,
			TTL:    cfg.JWTTTL,
		})
		token, err := tokens.Issue(args[0], constants.Role(tokenRole))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(constants.RoleUser), "role claim: USER or ADMIN")
	rootCmd.AddCommand(tokenCmd)
}
