package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRestoreCmd() *cobra.Command {
	var (
		kind     string
		id       int64
		commitID int64
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Print a corporation or team as it was at a commit",
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

			switch kind {
			case "corp":
				snapshot, err := svc.CorporationAsOf(cmd.Context(), id, commitID)
				if err != nil {
					return err
				}
				return writeJSON(snapshot)
			case "team":
				snapshot, err := svc.TeamAsOf(cmd.Context(), id, commitID)
				if err != nil {
					return err
				}
				return writeJSON(snapshot)
			default:
				return fmt.Errorf("invalid --kind %q: want corp or team", kind)
			}
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "corp", "corp or team")
	cmd.Flags().Int64Var(&id, "id", 0, "Corporation or team id (required)")
	cmd.Flags().Int64Var(&commitID, "commit", 0, "Commit id (required)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("commit")
	return cmd
}
