package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newKeysCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List aliases with a stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}

			aliases, err := a.aliases()
			if err != nil {
				a.logger.Error("failed to list keys", "error", err)
				return err
			}

			out := cmd.OutOrStdout()
			if len(aliases) == 0 {
				fmt.Fprintln(out, "No keys found in keystore")
				return nil
			}

			sort.Strings(aliases)
			fmt.Fprintf(out, "Keys in keystore (%d):\n", len(aliases))
			for _, alias := range aliases {
				fmt.Fprintf(out, "  - %s\n", alias)
			}
			return nil
		},
	}
}
