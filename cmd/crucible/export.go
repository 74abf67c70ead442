package main

import (
	"fmt"
	"os"

	"crucible/internal/export"

	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var agent, format, outPath string

	cmd := &cobra.Command{
		Use:   "export <sessionID>",
		Short: "Parse a session from agent storage and write it in an interchange format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}

			exporter, err := export.NewExporter(format)
			if err != nil {
				return err
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
				session, err := ext.Parse(args[0])
				if err != nil {
					return fmt.Errorf("parse %s: %w", name, err)
				}
				if session == nil {
					continue
				}

				w := os.Stdout
				if outPath != "" {
					f, err := os.Create(outPath)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return exporter.Export(session, w)
			}

			return fmt.Errorf("session not found: %s", args[0])
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "Only search this agent's storage (claude/cursor)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json/jsonl/yaml/md)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write to file instead of stdout")

	return cmd
}
