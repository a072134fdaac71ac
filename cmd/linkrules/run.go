package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liamcoop/linkrules/internal/logger"
	"github.com/liamcoop/linkrules/ruleset"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate every rule once and exit",
		Long: "Evaluate every rule once against the configured fact source. Reports are written " +
			"to stdout. The command exits non-zero if any rule could not be evaluated.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			m, err := ruleset.NewManager(opts.rulesPath, ruleset.Options{
				Out:    cmd.OutOrStdout(),
				Logger: logger.Logger,
			})
			if err != nil {
				return err
			}

			backend, err := openFacts(ctx, opts.facts)
			if err != nil {
				return err
			}
			defer backend.close()

			src, err := backend.source(ctx, subject)
			if err != nil {
				return err
			}

			run, err := m.RunAll(ctx, src)
			if err != nil {
				return err
			}

			for _, r := range run.Results {
				if r.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v (%s)\n", r.Err, r.Kind())
				}
			}
			if failed := run.Failed(); failed > 0 {
				return fmt.Errorf("%d of %d rules failed", failed, len(run.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Subject whose facts are evaluated (required for postgres and redis)")
	return cmd
}
