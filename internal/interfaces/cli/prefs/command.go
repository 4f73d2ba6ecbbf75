// Package prefs inspects and edits the local preference store.
package prefs

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"leadsync/internal/infrastructure/config"
	"leadsync/internal/infrastructure/preference"
	"leadsync/internal/shared/logger"
)

var (
	configPath string
	dbPath     string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Local preference tools",
		Long:  `Read and change the preferences leadsync keeps between sessions, such as the selected group title.`,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Preference database path (overrides the config)")

	cmd.AddCommand(
		newListCommand(),
		newGetCommand(),
		newSetCommand(),
		newDeleteCommand(),
	)

	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every stored preference",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, s *preference.Store, args []string) error {
			all, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			return printAll(cmd.OutOrStdout(), all)
		}),
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one preference",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, s *preference.Store, args []string) error {
			v, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
			return err
		}),
	}
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store one preference",
		Args:  cobra.ExactArgs(2),
		RunE: withStore(func(cmd *cobra.Command, s *preference.Store, args []string) error {
			return s.Set(cmd.Context(), args[0], args[1])
		}),
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove one preference",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, s *preference.Store, args []string) error {
			return s.Delete(cmd.Context(), args[0])
		}),
	}
}

type storeFunc func(cmd *cobra.Command, s *preference.Store, args []string) error

// withStore opens the store for the duration of one subcommand.
func withStore(fn storeFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		path, err := resolvePath()
		if err != nil {
			return err
		}
		s, err := preference.Open(path, logger.NewNopLogger())
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(cmd, s, args)
	}
}

func resolvePath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg.Preference.Path, nil
}

func printAll(out io.Writer, all map[string]string) error {
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(out, "%s=%s\n", k, all[k]); err != nil {
			return err
		}
	}
	return nil
}
