package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cppsema/internal/config"
	"cppsema/internal/observ"
	"cppsema/internal/prof"
	"cppsema/internal/trace"
)

// session is what every command needs besides its own flags.
type session struct {
	cfg    *config.Config
	tracer trace.Tracer
	timer  *observ.Timer
	quiet  bool
}

// loadSettings reads cppsema.toml and lets explicitly set flags win.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	pf := cmd.Root().PersistentFlags()
	path, err := pf.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		var wd string
		if wd, err = os.Getwd(); err == nil {
			cfg, err = config.Discover(wd)
		}
	}
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag string
		set  func() error
	}{
		{"max-diagnostics", func() (err error) { cfg.Engine.MaxDiagnostics, err = pf.GetInt("max-diagnostics"); return }},
		{"gnu", func() (err error) { cfg.Engine.GNUExtensions, err = pf.GetBool("gnu"); return }},
		{"color", func() (err error) { cfg.Output.Color, err = pf.GetString("color"); return }},
		{"trace", func() (err error) { cfg.Trace.Output, err = pf.GetString("trace"); return }},
		{"trace-level", func() (err error) { cfg.Trace.Level, err = pf.GetString("trace-level"); return }},
		{"trace-mode", func() (err error) { cfg.Trace.Mode, err = pf.GetString("trace-mode"); return }},
		{"trace-format", func() (err error) { cfg.Trace.Format, err = pf.GetString("trace-format"); return }},
	}
	for _, o := range overrides {
		if !pf.Changed(o.flag) {
			continue
		}
		if err := o.set(); err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", o.flag, err)
		}
	}
	// naming an output file without a level means "trace the phases"
	if pf.Changed("trace") && !pf.Changed("trace-level") && cfg.Trace.Level == "off" {
		cfg.Trace.Level = "phase"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// withSession wraps a RunE with settings, tracing and timing.
func withSession(fn func(cmd *cobra.Command, args []string, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		pf := cmd.Root().PersistentFlags()
		quiet, err := pf.GetBool("quiet")
		if err != nil {
			return fmt.Errorf("failed to get quiet flag: %w", err)
		}
		timings, err := pf.GetBool("timings")
		if err != nil {
			return fmt.Errorf("failed to get timings flag: %w", err)
		}

		stopProfiles, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		defer stopProfiles()

		tracer, cleanup, err := setupTracing(cmd, cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		defer dumpTraceOnPanic(tracer, cmd.ErrOrStderr())

		s := &session{cfg: cfg, tracer: tracer, quiet: quiet}
		if timings {
			s.timer = observ.NewTimer()
		}
		return fn(cmd, args, s)
	}
}

func setupProfiling(cmd *cobra.Command) (func(), error) {
	pf := cmd.Root().PersistentFlags()
	var paths prof.Paths
	for _, f := range []struct {
		flag string
		dst  *string
	}{{"cpu-profile", &paths.CPU}, {"mem-profile", &paths.Heap}, {"runtime-trace", &paths.Trace}} {
		v, err := pf.GetString(f.flag)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", f.flag, err)
		}
		*f.dst = v
	}
	if paths == (prof.Paths{}) {
		return func() {}, nil
	}
	s, err := prof.Start(paths)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := s.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "cppsema: %v\n", err)
		}
	}, nil
}

// color reports whether w should get ANSI colors.
func (s *session) color(w io.Writer) bool {
	switch s.cfg.Output.Color {
	case "on":
		return true
	case "off":
		return false
	}
	return isTerminal(w)
}
