package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cppsema/internal/driver"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [flags] file.cpp",
		Short: "Print the syntax tree of a C++ source file",
		Long:  `Parse prints the syntax tree, including the alternatives of statements that are ambiguous before name lookup`,
		Args:  cobra.ExactArgs(1),
		RunE:  withSession(runParse),
	}
}

func runParse(cmd *cobra.Command, args []string, s *session) error {
	var result *driver.ParseResult
	var parseErr error
	s.time("parse", args[0], func() { result, parseErr = driver.Parse(args[0], s.cfg) })
	if parseErr != nil {
		return fmt.Errorf("parsing failed: %w", parseErr)
	}
	if err := s.printDiagnostics(cmd.ErrOrStderr(), result.Bag, result.FileSet); err != nil {
		return err
	}
	if err := result.Builder.Dump(cmd.OutOrStdout(), result.Root); err != nil {
		return err
	}
	s.printTimings(cmd.ErrOrStderr())
	if result.Bag.HasErrors() {
		return errReported
	}
	return nil
}
