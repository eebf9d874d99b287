package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xxxsen/proofnote/internal/pkg/jwt"
)

func newTokenCmd() *cobra.Command {
	var configPath string
	var userID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "issue an api token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID = strings.TrimSpace(userID)
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("jwt_secret is required")
			}
			token, err := jwt.GenerateToken(userID, []byte(cfg.JWTSecret), time.Duration(cfg.JWTTTLHours)*time.Hour)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the token")
	return cmd
}
