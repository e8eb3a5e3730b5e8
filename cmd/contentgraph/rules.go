package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/c360studio/contentgraph/rulespec"
)

func rulesCmd(opts *globalOptions) *cobra.Command {
	var (
		rulesPath string
		dump      bool
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the mapping rules in evaluation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), opts.logLevel)
			if rulesPath == "" {
				cfg, err := loadConfig(opts.configPath, logger)
				if err != nil {
					return err
				}
				rulesPath = cfg.Rules.Path
			}

			data := rulespec.DefaultYAML()
			if rulesPath != "" {
				var err error
				if data, err = os.ReadFile(rulesPath); err != nil {
					return fmt.Errorf("read rules file: %w", err)
				}
			}
			if dump {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			// Build to surface configuration errors, not just decode errors
			if _, err := rulespec.Parse(data); err != nil {
				return err
			}
			f, err := rulespec.Decode(data)
			if err != nil {
				return err
			}
			renderRules(cmd.OutOrStdout(), f)
			return nil
		},
	}
	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "Rules file (default: configured or embedded rules)")
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the rules YAML instead of a table")
	return cmd
}

func renderRules(w io.Writer, f *rulespec.File) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Rule", "Action", "Resources", "Relationships"})
	table.SetAutoWrapText(false)

	for i, r := range f.Rules {
		var types, rels []string
		for _, res := range r.Resources {
			types = append(types, res.Type)
			for pred := range res.Relationships {
				rels = append(rels, pred)
			}
		}
		sort.Strings(rels)
		table.Append([]string{
			fmt.Sprint(i + 1),
			r.Name,
			r.Action,
			strings.Join(types, ", "),
			strings.Join(rels, ", "),
		})
	}
	table.Render()
}
