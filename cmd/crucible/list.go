package main

import (
	"github.com/spf13/cobra"

	"crucible/internal/index"
	"crucible/internal/search"
	"crucible/internal/tui"
)

func listCmd() *cobra.Command {
	var agent, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse all indexed sessions sorted by last activity",
		Long:  `Opens a TUI panel showing all indexed sessions, newest first. Type to search across conversation content.`,
		Args:  cobra.NoArgs,
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

			index.IndexAll(db, e.reg, e.cfg, e.red)

			opts := search.Options{
				Agent: agent,
				Since: since,
				Limit: limit,
			}

			return tui.RunList(db, opts)
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "Filter by agent (claude/cursor)")
	cmd.Flags().StringVar(&since, "since", "", "Filter sessions active since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = no limit)")

	return cmd
}
