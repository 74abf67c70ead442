package main

import (
	"fmt"

	"crucible/internal/index"
	"crucible/internal/render"

	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	var hitSeq int
	var context int
	var query string
	var showThinking bool

	cmd := &cobra.Command{
		Use:   "show <sessionKey>",
		Short: "Show an indexed conversation with context around a hit",
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

			out, _, err := render.RenderConversation(db, args[0], render.Options{
				HitSeq:       hitSeq,
				Context:      context,
				Query:        query,
				ShowThinking: showThinking,
			})
			if err != nil {
				return err
			}

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&hitSeq, "hit", -1, "Message sequence number to highlight")
	cmd.Flags().IntVar(&context, "context", 10, "Messages before/after hit to show")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")
	cmd.Flags().BoolVar(&showThinking, "thinking", false, "Include assistant thinking blocks")

	return cmd
}
