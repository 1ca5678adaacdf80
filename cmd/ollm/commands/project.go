package commands

import (
	"fmt"
	"strings"

	"github.com/ollm-cli/ollm/internal/project"
	"github.com/spf13/cobra"
)

var manualProfileFlag string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Detect and initialize a workspace's project profile",
}

func init() {
	projectDetectCmd.Flags().StringVar(&manualProfileFlag, "profile", "", "Force a specific built-in profile instead of auto-detecting")
	projectCmd.AddCommand(projectDetectCmd, projectInitCmd, projectListCmd)
}

var projectDetectCmd = &cobra.Command{
	Use:   "detect [dir]",
	Short: "Detect the project profile for a workspace directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		dir, err := workDir(dir)
		if err != nil {
			return err
		}

		svc := project.NewService()
		if manualProfileFlag != "" {
			if err := svc.SetManualProfile(manualProfileFlag); err != nil {
				return err
			}
		}

		profile, ok, err := svc.ResolveProfile(dir)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("workspace directory does not exist: %s", dir)
		}
		fmt.Printf("profile: %s\nsystemPrompt: %s\nrouting.defaultProfile: %s\n", profile.Name, profile.SystemPrompt, profile.Routing.DefaultProfile)
		return nil
	},
}

var projectInitCmd = &cobra.Command{
	Use:   "init <profile> [dir]",
	Short: "Write .ollm/project.yaml for a built-in profile",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 1 {
			dir = args[1]
		}
		dir, err := workDir(dir)
		if err != nil {
			return err
		}
		return project.InitializeProject(dir, args[0])
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in project profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(strings.Join(project.ListBuiltInProfiles(), "\n"))
		return nil
	},
}
