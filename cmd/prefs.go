package cmd

import (
	"fmt"

	"compotube/internal/model"

	"github.com/spf13/cobra"
)

func newPrefsCmd(flags *flagValues) *cobra.Command {
	prefs := &cobra.Command{
		Use:   "prefs",
		Short: "Inspect or clear stored preferences",
	}

	var raw bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the persisted session and permission grants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, *flags, false, func(env *environment) error {
				out := cmd.OutOrStdout()
				stored, err := env.store.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list preferences: %w", err)
				}
				if len(stored) == 0 {
					printf(out, "No stored preferences in %s\n", env.config.DBPath)
					return nil
				}
				for _, p := range stored {
					if p.Name != model.PrefKey || raw {
						printf(out, "%s = %s\n", p.Name, p.Value)
						continue
					}
					value := p.Value
					m, err := model.Deserialize(&value)
					if err != nil {
						printf(out, "%s = %s (unreadable: %v)\n", p.Name, p.Value, err)
						continue
					}
					printf(out, "%s\n  account: %s\n  query:   %q\n", p.Name, model.DisplayName(m.AccountName), m.Query)
				}
				return nil
			})
		},
	}
	show.Flags().BoolVar(&raw, "raw", false, "Print stored values verbatim")

	clearCmd := &cobra.Command{
		Use:   "clear [name...]",
		Short: "Delete stored preferences (default: the persisted session)",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = []string{model.PrefKey}
			}
			return withEnv(cmd, *flags, false, func(env *environment) error {
				for _, name := range names {
					if err := env.store.Delete(cmd.Context(), name); err != nil {
						return fmt.Errorf("failed to delete %s: %w", name, err)
					}
					printf(cmd.OutOrStdout(), "Deleted %s\n", name)
				}
				return nil
			})
		},
	}

	prefs.AddCommand(show, clearCmd)
	return prefs
}
