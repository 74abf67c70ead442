package main

import (
	"github.com/spf13/cobra"

	"crucible/internal/index"
	"crucible/internal/open"
)

func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <sessionKey>",
		Short: "Open a session's source log file in $EDITOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(e.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			return open.OpenSession(db, args[0])
		},
	}
}
