package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/peteonrails/voxtype/internal/config"
)

// newConfigCmd prints the effective configuration, or just its path.
func newConfigCmd() *cobra.Command {
	var showPath bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := config.GetConfigPath()
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}

			if showPath {
				fmt.Println(configPath)
				return nil
			}

			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				fmt.Printf("config file does not exist yet, defaults in effect: %s\n", configPath)
			} else {
				fmt.Printf("config file: %s\n\n", configPath)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Print(cfg.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&showPath, "path", false, "print only the config file path")
	return cmd
}
