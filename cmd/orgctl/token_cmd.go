package main

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/orgchart-service/internal/auth"
)

func newTokenCmd() *cobra.Command {
	var personID int64

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token for a person",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			token, exp, err := auth.NewTokenManager(e.cfg.Auth.JWTSecret, e.cfg.Auth.AccessTokenTTLMinutes).GenerateToken(personID)
			if err != nil {
				return err
			}
			return writeJSON(map[string]any{"token": token, "expires_at": exp.UTC()})
		},
	}

	cmd.Flags().Int64Var(&personID, "person", 0, "Person id the token acts as (required)")
	_ = cmd.MarkFlagRequired("person")
	return cmd
}
