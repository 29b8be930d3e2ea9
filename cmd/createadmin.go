/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/sapiencia-analitica/matricula-portal/config"
	"github.com/sapiencia-analitica/matricula-portal/internal/auth"
	"github.com/sapiencia-analitica/matricula-portal/internal/db"
	"github.com/sapiencia-analitica/matricula-portal/internal/services"
	"github.com/sapiencia-analitica/matricula-portal/internal/store"
	"github.com/spf13/cobra"
)

var (
	createAdminPassword string
	createAdminFullName string
)

// createAdminCmd bootstraps the privileged account. Registration is gated on
// that account existing, so the first one has to come from outside the API.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the admin account in the credential store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(createAdminPassword) < services.MinPasswordLength {
			return fmt.Errorf("password must have at least %d characters", services.MinPasswordLength)
		}

		cfg := config.LoadConfig()
		authDB, err := db.Open(cmd.Context(), cfg.AuthDB)
		if err != nil {
			return fmt.Errorf("open auth database: %w", err)
		}
		defer authDB.Close()

		salt, digest, err := auth.Derive(createAdminPassword)
		if err != nil {
			return err
		}

		repo := store.NewUserRepository(authDB)
		err = repo.Insert(cmd.Context(), services.AdminUsername, digest, salt, createAdminFullName)
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return errors.New("admin account already exists")
			}
			return err
		}

		fmt.Println("admin account created")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
	createAdminCmd.Flags().StringVar(&createAdminPassword, "password", "", "password for the admin account")
	createAdminCmd.Flags().StringVar(&createAdminFullName, "full-name", "Administrador", "display name for the admin account")
	_ = createAdminCmd.MarkFlagRequired("password")
}
