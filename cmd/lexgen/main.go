// Command lexgen is the thin external collaborator spec.md §6.3 describes:
// it reads a rule set, runs the generator, and writes the result to a path
// or stdout. It owns no lexer semantics of its own.
//
// Surface syntax (turning source text into a ruleset.RuleSet) is
// explicitly out of scope for this module — see ruleset.RuleSet's doc
// comment — so the CLI's <input> is a JSON document decoding directly
// into a ruleset.RuleSet, the same structured shape Build consumes.
package main

import (
	"encoding/json"
	"fmt"
	"go/format"
	"os"

	"github.com/coregx/lexforge"
	"github.com/coregx/lexforge/ruleset"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var outputPath string
	var check bool
	var doFormat bool

	cmd := &cobra.Command{
		Use:   "lexgen <input>",
		Short: "Generate a Go lexer from a rule set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], outputPath, check, doFormat)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&outputPath, "output", "", "write generated source to this path instead of stdout")
	cmd.Flags().BoolVar(&check, "check", false, "exit non-zero if --output's contents differ from the generated source")
	cmd.Flags().BoolVar(&doFormat, "format", false, "pipe the generated source through gofmt before writing or comparing")

	return cmd
}

func run(inputPath, outputPath string, check, doFormat bool) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}

	var rs ruleset.RuleSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		return fmt.Errorf("parsing %s: %w", inputPath, err)
	}

	result, buildErrs := lexforge.Build(&rs)
	if buildErrs != nil && buildErrs.Len() > 0 {
		for _, e := range buildErrs.All() {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return fmt.Errorf("%d build error(s)", buildErrs.Len())
	}

	out := result.Source
	if doFormat {
		formatted, err := format.Source([]byte(out))
		if err != nil {
			return fmt.Errorf("formatting generated source: %w", err)
		}
		out = string(formatted)
	}

	if check {
		if outputPath == "" {
			return fmt.Errorf("--check requires --output")
		}
		existing, err := os.ReadFile(outputPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", outputPath, err)
		}
		if string(existing) != out {
			fmt.Fprintf(os.Stderr, "%s is stale\n", outputPath)
			return fmt.Errorf("check failed")
		}
		return nil
	}

	if outputPath == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(outputPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return nil
}
