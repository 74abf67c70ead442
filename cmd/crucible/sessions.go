package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crucible/internal/index"
)

func sessionsCmd() *cobra.Command {
	var agent, since string
	var limit int
	var indexed bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions, either live from agent storage or from the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}

			if indexed {
				db, err := index.OpenDB(e.cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()

				rows, err := db.ListSessions(agent, since, limit)
				if err != nil {
					return err
				}
				for _, s := range rows {
					fmt.Printf("%s\t%s\t%s\t%s\t%du/%da/%dt\n",
						s.SessionKey, s.EndTime, s.Project, s.Model,
						s.UserMsgs, s.AsstMsgs, s.ToolUses)
				}
				return nil
			}

			agents := e.reg.List()
			if agent != "" {
				agents = []string{agent}
			}

			for _, name := range agents {
				ext, ok := e.reg.Create(name, e.cfg, e.red)
				if !ok {
					return fmt.Errorf("unknown agent: %s", name)
				}
				handles, err := ext.Discover()
				if err != nil {
					return fmt.Errorf("discover %s: %w", name, err)
				}
				for _, h := range handles {
					ts := h.Timestamp
					if ts == "" {
						ts = "-"
					}
					fmt.Printf("%s\t%s\t%s\t%s\n", name, h.ID, ts, h.Locator)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "Only this agent (claude/cursor)")
	cmd.Flags().StringVar(&since, "since", "", "With --indexed: sessions active since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "With --indexed: max results (0 = no limit)")
	cmd.Flags().BoolVar(&indexed, "indexed", false, "Read from the index instead of agent storage")

	return cmd
}
