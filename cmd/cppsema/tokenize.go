package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cppsema/internal/diagfmt"
	"cppsema/internal/driver"
)

func newTokenizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize [flags] file.cpp",
		Short: "Print the token stream of a C++ source file",
		Long:  `Tokenize lexes a file after object-like macro expansion and prints every token with its span`,
		Args:  cobra.ExactArgs(1),
		RunE:  withSession(runTokenize),
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func runTokenize(cmd *cobra.Command, args []string, s *session) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format %q (expected pretty|json)", format)
	}

	var result *driver.TokenizeResult
	var tokErr error
	s.time("tokenize", args[0], func() { result, tokErr = driver.Tokenize(args[0], s.cfg) })
	if tokErr != nil {
		return fmt.Errorf("tokenization failed: %w", tokErr)
	}

	if err := s.printDiagnostics(cmd.ErrOrStderr(), result.Bag, result.FileSet); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if format == "json" {
		err = diagfmt.FormatTokensJSON(out, result.Tokens, result.FileSet)
	} else {
		err = diagfmt.FormatTokensPretty(out, result.Tokens, result.FileSet)
	}
	if err != nil {
		return err
	}
	s.printTimings(cmd.ErrOrStderr())
	if result.Bag.HasErrors() {
		return errReported
	}
	return nil
}
