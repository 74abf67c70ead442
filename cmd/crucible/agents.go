package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func agentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List supported agents and their storage locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}

			for _, name := range e.reg.List() {
				ext, _ := e.reg.Create(name, e.cfg, e.red)
				fmt.Printf("%s\n", name)
				for _, loc := range ext.StorageLocations() {
					status := "missing"
					if _, err := os.Stat(loc); err == nil {
						status = "ok"
					}
					fmt.Printf("  %s (%s)\n", loc, status)
				}
			}
			return nil
		},
	}
}
