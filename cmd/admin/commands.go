package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/jigintern/2025-summer-c/internal/seed"
	"github.com/jigintern/2025-summer-c/internal/service"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

// newRootCmd builds the command tree. Every subcommand gets its app from
// open, which runs once per invocation.
func newRootCmd(open opener) *cobra.Command {
	var current *app

	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "Maintain the map notes store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			current = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if current == nil {
				return nil
			}
			return current.close()
		},
	}
	appFor := func() *app { return current }

	rootCmd.AddCommand(
		newSeedCmd(appFor),
		newReindexCmd(appFor),
		newCheckCmd(appFor),
		newResetCmd(appFor),
		newDumpCmd(appFor),
		newDeleteCmd(appFor),
	)
	return rootCmd
}

func newSeedCmd(appFor func() *app) *cobra.Command {
	var (
		file     string
		generate int
		rngSeed  uint64
		out      string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Bulk-insert records from a JSON file or generate random ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (file == "") == (generate == 0) {
				return errors.New("exactly one of --file or --generate is required")
			}

			var (
				reqs []service.SubmitRequest
				err  error
			)
			if file != "" {
				reqs, err = seed.LoadFile(file)
			} else {
				reqs, err = seed.Generate(generate, rand.New(rand.NewPCG(rngSeed, rngSeed)), seed.DefaultOptions())
			}
			if err != nil {
				return err
			}

			if out != "" {
				if err := writeFile(out, reqs); err != nil {
					return err
				}
			}

			n, err := appFor().maintenance.Seed(cmd.Context(), reqs)
			if err != nil {
				return fmt.Errorf("stored %d of %d records: %w", n, len(reqs), err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d records\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON array of records to load")
	cmd.Flags().IntVarP(&generate, "generate", "n", 0, "number of random records to generate")
	cmd.Flags().Uint64Var(&rngSeed, "seed", 1, "random seed for --generate")
	cmd.Flags().StringVarP(&out, "out", "o", "", "also write the records to this file")
	return cmd
}

func writeFile(path string, reqs []service.SubmitRequest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := seed.Write(f, reqs); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func newReindexCmd(appFor func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the decade index and search mirror from stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := appFor().maintenance.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reindexed %d records (%d index entries, %d mirrored)\n",
				stats.Records, stats.Entries, stats.Mirrored)
			return nil
		},
	}
}

func newCheckCmd(appFor func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report stale and missing decade index entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := appFor().maintenance.Check(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Records: %d\nIndex entries: %d\n", report.Records, report.IndexEntries)
			for _, e := range report.Stale {
				_, _ = fmt.Fprintf(w, "stale   %d %s\n", e.Year, e.ID)
			}
			for _, e := range report.Missing {
				_, _ = fmt.Fprintf(w, "missing %d %s\n", e.Year, e.ID)
			}
			if !report.Consistent() {
				return fmt.Errorf("index inconsistent: %d stale, %d missing; run reindex",
					len(report.Stale), len(report.Missing))
			}
			_, _ = fmt.Fprintln(w, "Index is consistent")
			return nil
		},
	}
}

func newResetCmd(appFor func() *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every record, index entry and mirrored point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes all data; pass --yes to confirm")
			}
			if err := appFor().maintenance.Reset(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Store reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newDumpCmd(appFor func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Write every record as a JSON array that seed --file can load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records := []*storage.Record{}
			for record, err := range appFor().records.List(cmd.Context()) {
				if err != nil {
					return err
				}
				records = append(records, record)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
}

func newDeleteCmd(appFor func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete records with their index entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := appFor().maintenance.Delete(cmd.Context(), id); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			return nil
		},
	}
}
