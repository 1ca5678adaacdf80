package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ollm-cli/ollm/internal/clock"
	"github.com/ollm-cli/ollm/internal/config"
	"github.com/ollm-cli/ollm/internal/memory"
	"github.com/ollm-cli/ollm/internal/storage"
	"github.com/spf13/cobra"
)

var memoryCategory string

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and edit the persistent memory store",
}

func init() {
	memoryRememberCmd.Flags().StringVar(&memoryCategory, "category", string(memory.CategoryFact), "fact|preference|context")
	memoryCmd.AddCommand(memoryRememberCmd, memoryRecallCmd, memorySearchCmd, memoryForgetCmd, memoryListCmd)
}

func openMemoryStore() (*memory.Store, error) {
	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return nil, err
	}
	st := storage.New(paths.StoragePath())
	store := memory.New(st, []string{"memory"}, 4096, clock.Real{})
	if err := store.Load(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

var memoryRememberCmd = &cobra.Command{
	Use:   "remember <key> <value>",
	Short: "Store or update a memory entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openMemoryStore()
		if err != nil {
			return err
		}
		store.Remember(args[0], args[1], memory.WithCategory(memory.Category(memoryCategory)))
		return store.Save(cmd.Context())
	},
}

var memoryRecallCmd = &cobra.Command{
	Use:   "recall <key>",
	Short: "Recall a single memory entry, recording access",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openMemoryStore()
		if err != nil {
			return err
		}
		entry, ok := store.Recall(args[0])
		if !ok {
			return fmt.Errorf("no such memory: %s", args[0])
		}
		fmt.Println(entry.Value)
		return store.Save(cmd.Context())
	},
}

var memorySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search memory keys and values by substring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openMemoryStore()
		if err != nil {
			return err
		}
		printEntries(store.Search(args[0]))
		return nil
	},
}

var memoryForgetCmd = &cobra.Command{
	Use:   "forget <key>",
	Short: "Delete a memory entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openMemoryStore()
		if err != nil {
			return err
		}
		if !store.Forget(args[0]) {
			return fmt.Errorf("no such memory: %s", args[0])
		}
		return store.Save(cmd.Context())
	},
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every memory entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openMemoryStore()
		if err != nil {
			return err
		}
		printEntries(store.ListAll())
		return nil
	},
}

func printEntries(entries []memory.MemoryEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tCATEGORY\tACCESSES\tVALUE\t")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t\n", e.Key, e.Category, e.AccessCount, e.Value)
	}
	w.Flush()
}
