package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crucible/internal/index"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify agent storage, DB, FTS5, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}

			// check agent storage
			fmt.Println("=== Agents ===")
			for _, name := range e.reg.List() {
				ext, _ := e.reg.Create(name, e.cfg, e.red)
				fmt.Printf("  %s\n", name)
				for _, loc := range ext.StorageLocations() {
					checkPath(loc)
				}
				handles, err := ext.Discover()
				if err != nil {
					fmt.Printf("    discover error: %v\n", err)
				} else {
					fmt.Printf("    sessions discovered: %d\n", len(handles))
				}
			}

			// check DB
			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", e.cfg.DBPath)
			if _, err := os.Stat(e.cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'crucible index' first)")
				return nil
			}

			db, err := index.OpenDB(e.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			sessionCount, err := db.SessionCount()
			if err != nil {
				return fmt.Errorf("count sessions: %w", err)
			}

			messageCount, err := db.MessageCount()
			if err != nil {
				return fmt.Errorf("count messages: %w", err)
			}

			fmt.Printf("  Sessions: %d\n", sessionCount)
			fmt.Printf("  Messages: %d\n", messageCount)

			// check FTS5
			fmt.Println("\n=== FTS5 ===")
			var ftsCount int
			err = db.Raw().QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&ftsCount)
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == messageCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (messages=%d, fts=%d)\n", messageCount, ftsCount)
				}
			}

			// check DB file size
			if info, err := os.Stat(e.cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func checkPath(path string) {
	if _, err := os.Stat(path); err != nil {
		fmt.Printf("    %s (NOT FOUND)\n", path)
	} else {
		fmt.Printf("    %s (OK)\n", path)
	}
}
