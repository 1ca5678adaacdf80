package commands

import (
	"encoding/json"
	"fmt"

	"github.com/ollm-cli/ollm/internal/config"
	"github.com/spf13/cobra"
)

var configDir string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the merged services configuration",
}

func init() {
	configShowCmd.Flags().StringVar(&configDir, "dir", "", "Project directory (defaults to the working directory)")
	configCmd.AddCommand(configShowCmd)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged global+project configuration as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := workDir(configDir)
		if err != nil {
			return err
		}
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}
