package cli

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources and their credential state",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cfg := configStore.Config()
	if len(cfg.Sources) == 0 {
		cmd.Println("No sources configured.")
		cmd.Printf("Add a [sources.<name>] section to %s\n", configStore.Path())
		return nil
	}

	names := make([]string, 0, len(cfg.Sources))
	for name := range cfg.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	cmd.Println("Configured sources:")
	cmd.Println()
	for _, name := range names {
		src := cfg.Sources[name]

		state := "ready"
		switch {
		case !src.HasCredentials():
			state = "missing credentials (will be skipped)"
		case src.TOTPSecret != "":
			state = "ready (two-factor)"
		}

		cmd.Printf("  %s\n", name)
		cmd.Printf("    URL:   %s\n", src.BaseURL)
		cmd.Printf("    State: %s\n", state)
		cmd.Printf("    Pages: %d\n", src.MaxPages)
		cmd.Println()
	}
	return nil
}
