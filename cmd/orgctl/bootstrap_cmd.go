package main

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/orgchart-service/internal/auth"
)

type bootstrapOutput struct {
	PersonID  int64  `json:"person_id"`
	CommitID  int64  `json:"commit_id"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func newBootstrapCmd() *cobra.Command {
	var (
		employeeID string
		name       string
		message    string
	)

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first person and commit and mint a token for them",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			svc, closeDB, err := e.orgService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			person, err := svc.CreatePerson(cmd.Context(), employeeID, name)
			if err != nil {
				return err
			}
			commit, err := svc.StartCommit(cmd.Context(), person.ID, message)
			if err != nil {
				return err
			}
			token, exp, err := auth.NewTokenManager(e.cfg.Auth.JWTSecret, e.cfg.Auth.AccessTokenTTLMinutes).GenerateToken(person.ID)
			if err != nil {
				return err
			}
			return writeJSON(bootstrapOutput{
				PersonID:  person.ID,
				CommitID:  commit.ID,
				Token:     token,
				ExpiresAt: exp.UTC().Format("2006-01-02T15:04:05Z"),
			})
		},
	}

	cmd.Flags().StringVar(&employeeID, "employee-id", "", "Employee id of the operator (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name of the operator (required)")
	cmd.Flags().StringVar(&message, "message", "initial commit", "Message of the first commit")
	_ = cmd.MarkFlagRequired("employee-id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
