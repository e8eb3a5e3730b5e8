package main

import (
	"github.com/spf13/cobra"
)

func generateCmd(opts *globalOptions) *cobra.Command {
	flags := &outputFlags{}

	cmd := &cobra.Command{
		Use:   "generate [root]",
		Short: "Generate the resource graph of a content tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := prepare(cmd, opts, flags)
			if err != nil {
				return err
			}
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}

			app, err := NewApp(cfg, logger, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer app.Shutdown()

			_, err = app.Generate(ctx, root, nil)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}
