package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/susu3304/guildbot/internal/export"
	"github.com/susu3304/guildbot/internal/roster"
	"github.com/susu3304/guildbot/internal/split"
	"go.uber.org/zap"
)

type calcOptions struct {
	roster string
	budget int64
	csv    string
	asc    bool
}

func newCalcCommand() *cobra.Command {
	opts := &calcOptions{}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Split diamonds for a roster file without Discord or a database",
		Long: `Split a diamond budget across the members of a YAML roster in proportion
to their attendance rate and print the result, or write it as CSV with --csv.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.roster, "roster", "", "roster YAML file")
	cmd.Flags().Int64Var(&opts.budget, "budget", 0, "number of diamonds to split")
	cmd.Flags().StringVar(&opts.csv, "csv", "", "write CSV to this file (- for stdout)")
	cmd.Flags().BoolVar(&opts.asc, "asc", false, "list members by ascending attendance")
	_ = cmd.MarkFlagRequired("roster")
	_ = cmd.MarkFlagRequired("budget")

	return cmd
}

func runCalc(ctx context.Context, out io.Writer, opts *calcOptions) error {
	src, err := roster.LoadFile(opts.roster)
	if err != nil {
		return err
	}

	const guildID, owner = 0, "cli"
	svc := split.NewService(src, nil, 0, zap.NewNop())
	if _, err := svc.Open(ctx, guildID, owner); err != nil {
		return err
	}
	if _, err := svc.SetBudget(guildID, owner, opts.budget); err != nil {
		return err
	}
	if _, err := svc.Distribute(guildID, owner); err != nil {
		return err
	}

	order := split.OrderDesc
	if opts.asc {
		order = split.OrderAsc
	}
	sum, err := svc.Snapshot(guildID, owner, order)
	if err != nil {
		return err
	}

	switch opts.csv {
	case "":
		fmt.Fprint(out, export.Table(sum))
		fmt.Fprintln(out)
		fmt.Fprintln(out, strings.ReplaceAll(export.Footer(sum), "**", ""))
		return nil
	case "-":
		return export.WriteCSV(out, sum)
	default:
		f, err := os.Create(opts.csv)
		if err != nil {
			return err
		}
		if err := export.WriteCSV(f, sum); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %d members to %s\n", len(sum.Members), opts.csv)
		return nil
	}
}
