package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joncooperworks/keystorecipher/crypto"
	"github.com/joncooperworks/keystorecipher/crypto/keystore"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which key backend is in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			backend := a.manager.Backend()
			fmt.Fprintf(out, "Backend:    %s\n", color.CyanString(backend.Name()))
			fmt.Fprintf(out, "Service:    %s\n", a.cfg.ServiceName)
			fmt.Fprintf(out, "Prefs:      %s\n", a.store.Path())
			fmt.Fprintf(out, "Platforms:  %s\n", strings.Join(keystore.ListRegisteredPlatforms(), ", "))

			legacy, ok := backend.(*crypto.LegacyBackend)
			if !ok {
				return nil
			}

			state := legacy.Adapter.State()
			if state == keystore.LegacyInitialized {
				fmt.Fprintf(out, "Legacy:     %s (%s)\n", color.GreenString(state.String()), a.cfg.LegacyDir)
				return nil
			}
			fmt.Fprintf(out, "Legacy:     %s\n", color.RedString(state.String()))
			if desc := a.legacy.LastErrorDescription(); desc != "" {
				fmt.Fprintf(out, "            %s\n", desc)
			}
			return nil
		},
	}
}
