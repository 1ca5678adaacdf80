package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ollm-cli/ollm/internal/clock"
	"github.com/ollm-cli/ollm/internal/logging"
	"github.com/ollm-cli/ollm/internal/modelmgmt"
	"github.com/ollm-cli/ollm/internal/modelrouter"
	"github.com/ollm-cli/ollm/internal/provider"
	"github.com/spf13/cobra"
)

var ollamaHost string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage and route local models",
}

func init() {
	modelsCmd.PersistentFlags().StringVar(&ollamaHost, "host", "http://localhost:11434", "Ollama daemon URL")
	modelsCmd.AddCommand(modelsListCmd, modelsPullCmd, modelsRmCmd, modelsShowCmd, modelsRouteCmd)
}

func newService() *modelmgmt.Service {
	adapter := provider.NewOllamaAdapter(ollamaHost)
	return modelmgmt.New(adapter, clock.Real{}, modelmgmt.KeepAliveConfig{}, 30*time.Second, nil)
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List models known to the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService()
		models, err := svc.ListModels(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tFAMILY\tSIZE\tMODIFIED\t")
		for _, m := range models {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t\n", m.Name, m.Family, m.Size, m.ModifiedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var modelsPullCmd = &cobra.Command{
	Use:   "pull <name>",
	Short: "Pull a model from the daemon's registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService()
		logging.Component("modelmgmt").Info().Str("model", args[0]).Msg("pulling model")
		return svc.PullModel(cmd.Context(), args[0], func(p provider.ProgressUpdate) {
			fmt.Fprintf(os.Stderr, "%s: %d/%d\n", p.Status, p.Completed, p.Total)
		})
	},
}

var modelsRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a model, unloading it first if resident",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService()
		logging.Component("modelmgmt").Info().Str("model", args[0]).Msg("deleting model")
		return svc.DeleteModel(cmd.Context(), args[0])
	},
}

var modelsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show provider-reported detail for a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService()
		info, err := svc.ShowModel(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("name:    %s\nfamily:  %s\nsize:    %d\nmodified: %s\n", info.Name, info.Family, info.Size, info.ModifiedAt.Format(time.RFC3339))
		return nil
	},
}

var modelsRouteCmd = &cobra.Command{
	Use:   "route <profile> <model...>",
	Short: "Show which available model the router would pick for a profile, with each model's capability score",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile := modelrouter.Profile(args[0])
		available := args[1:]

		cfg := modelrouter.Config{Enabled: true, DefaultProfile: profile}
		chosen, ok := cfg.SelectModel(profile, available)
		if !ok {
			fmt.Println("no model satisfies that profile")
			return nil
		}

		fmt.Printf("selected: %s (score %.1f)\n", chosen, modelrouter.Score(chosen))
		for _, m := range available {
			if m == chosen {
				continue
			}
			fmt.Printf("  %s (score %.1f)\n", m, modelrouter.Score(m))
		}
		return nil
	},
}
