package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"cppsema/internal/driver"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [flags] file.cpp",
		Short: "List every name of a translation unit with its binding",
		Long: `Resolve runs name lookup, overload resolution and template instantiation
over one translation unit and prints what each name occurrence refers to`,
		Args: cobra.ExactArgs(1),
		RunE: withSession(runResolve),
	}
	cmd.Flags().String("format", "text", "output format (text|json|msgpack)")
	cmd.Flags().Bool("problems", false, "only list names that failed to resolve")
	cmd.Flags().Bool("implicit", true, "include implicit names (constructors, conversions, operators)")
	return cmd
}

func runResolve(cmd *cobra.Command, args []string, s *session) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	onlyProblems, err := cmd.Flags().GetBool("problems")
	if err != nil {
		return fmt.Errorf("failed to get problems flag: %w", err)
	}
	implicit, err := cmd.Flags().GetBool("implicit")
	if err != nil {
		return fmt.Errorf("failed to get implicit flag: %w", err)
	}
	switch format {
	case "text", "json", "msgpack":
	default:
		return fmt.Errorf("unknown format %q (expected text|json|msgpack)", format)
	}

	res := driver.AnalyzeFile(cmd.Context(), args[0], &driver.Options{Config: s.cfg, Timer: s.timer})
	if res.Err != nil {
		return res.Err
	}
	if err := s.printDiagnostics(cmd.ErrOrStderr(), res.Bag, res.FileSet); err != nil {
		return err
	}

	report := *res.Report
	report.Names = report.Names[:0:0]
	for _, e := range res.Report.Names {
		if (onlyProblems && e.Problem == "") || (!implicit && e.Implicit) {
			continue
		}
		report.Names = append(report.Names, e)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	case "msgpack":
		var data []byte
		if data, err = msgpack.Marshal(&report); err == nil {
			_, err = out.Write(data)
		}
	default:
		err = writeReportText(out, &report)
	}
	if err != nil {
		return err
	}
	s.printTimings(cmd.ErrOrStderr())
	if report.Problems > 0 {
		return errReported
	}
	return nil
}

// writeReportText prints one aligned row per name:
//
//	3:9   counter   ref   variable   counter   int
func writeReportText(w io.Writer, r *driver.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range r.Names {
		spelling := e.Spelling
		if e.Implicit {
			spelling = "(" + spelling + ")"
		}
		var target string
		switch {
		case e.Problem != "":
			target = "!" + e.Problem
		case e.Local:
			target = e.Binding + " [local]"
		default:
			target = e.Binding
		}
		cols := []string{fmt.Sprintf("%d:%d", e.Line, e.Col), spelling, e.Role, e.Kind, target, e.Type}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d names, %d unresolved\n", len(r.Names), r.Problems)
	return err
}
