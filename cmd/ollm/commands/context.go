package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ollm-cli/ollm/internal/clock"
	"github.com/ollm-cli/ollm/internal/contextmgr"
	"github.com/spf13/cobra"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Debug the context manager's priority ordering and system-prompt rendering",
}

func init() {
	contextCmd.AddCommand(contextShowCmd, contextBySourceCmd)
}

// parseEntry accepts "key=content", "key:priority=content",
// "source:key=content", or "source:key:priority=content" and applies
// whichever fields are present. A two-part head is read as key:priority
// when its second part is an integer, and as source:key otherwise.
func parseEntry(m *contextmgr.Manager, raw string) error {
	eq := strings.Index(raw, "=")
	if eq < 0 {
		return fmt.Errorf("invalid entry %q: expected key[:priority]=content or source:key[:priority]=content", raw)
	}
	head, content := raw[:eq], raw[eq+1:]

	parts := strings.Split(head, ":")
	var opts []contextmgr.Option
	var key string

	switch len(parts) {
	case 1:
		key = parts[0]
	case 2:
		if p, err := strconv.Atoi(parts[1]); err == nil {
			key = parts[0]
			opts = append(opts, contextmgr.WithPriority(p))
		} else {
			opts = append(opts, contextmgr.WithSource(contextmgr.Source(parts[0])))
			key = parts[1]
		}
	case 3:
		opts = append(opts, contextmgr.WithSource(contextmgr.Source(parts[0])))
		key = parts[1]
		if p, err := strconv.Atoi(parts[2]); err == nil {
			opts = append(opts, contextmgr.WithPriority(p))
		}
	default:
		return fmt.Errorf("invalid entry %q", raw)
	}

	m.AddContext(key, content, opts...)
	return nil
}

var contextShowCmd = &cobra.Command{
	Use:   "show <key[:priority]=content>...",
	Short: "Add the given entries and print the resulting system-prompt addition",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := contextmgr.New(clock.Real{})
		for _, raw := range args {
			if err := parseEntry(m, raw); err != nil {
				return err
			}
		}
		fmt.Print(m.GetSystemPromptAddition())
		fmt.Println()
		return nil
	},
}

var contextBySourceCmd = &cobra.Command{
	Use:   "bysource <source> <source:key[:priority]=content>...",
	Short: "Add the given entries and print only those from one source",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := contextmgr.Source(args[0])
		m := contextmgr.New(clock.Real{})
		for _, raw := range args[1:] {
			if err := parseEntry(m, raw); err != nil {
				return err
			}
		}
		for _, e := range m.GetContextBySource(source) {
			fmt.Printf("%s (priority %d): %s\n", e.Key, e.Priority, e.Content)
		}
		return nil
	},
}
