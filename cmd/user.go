package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/app/repository"
	"github.com/vibast-solutions/ms-go-contacts/app/service"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userVerifyCmd = &cobra.Command{
	Use:   "verify <email>",
	Short: "Mark a user's email as verified without the confirmation link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := service.NormalizeEmail(strings.TrimSpace(args[0]))

		return withDatabase(cmd.Context(), func(ctx context.Context, db *sql.DB) error {
			userRepo := repository.NewUserRepository(db)

			user, err := userRepo.FindByEmail(ctx, email)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("no user with email %q", email)
			}
			if user.IsVerified {
				fmt.Printf("user %s is already verified\n", user.Username)
				return nil
			}

			if err = userRepo.MarkVerified(ctx, email); err != nil {
				return err
			}
			fmt.Printf("verified: %s <%s>\n", user.Username, user.Email)
			return nil
		})
	},
}

func init() {
	userCmd.AddCommand(userVerifyCmd)
	rootCmd.AddCommand(userCmd)
}
