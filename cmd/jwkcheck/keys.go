package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newKeysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Fetch the key set and list its signing keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.newClient(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.Refresh(cmd.Context()); err != nil {
				return err
			}

			snapshot := client.Snapshot()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KID\tALG\tNOT BEFORE")
			for _, record := range snapshot.Records() {
				alg := record.Algorithm
				if alg == "" {
					alg = "-"
				}
				notBefore := "-"
				if !record.NotBefore.IsZero() {
					notBefore = record.NotBefore.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", record.ID, alg, notBefore)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "%d keys fetched at %s\n", snapshot.Len(), snapshot.FetchedAt().UTC().Format(time.RFC3339))
			return nil
		},
	}
}
