package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cppsema/internal/config"
	"cppsema/internal/trace"
)

// setupTracing builds the tracer from cfg and the ring/heartbeat flags and
// attaches it to the command context. The returned cleanup stops the
// heartbeat and flushes the tracer.
func setupTracing(cmd *cobra.Command, cfg *config.Config) (trace.Tracer, func(), error) {
	pf := cmd.Root().PersistentFlags()
	tcfg, err := cfg.Tracer()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace settings: %w", err)
	}
	if tcfg.RingSize, err = pf.GetInt("trace-ring-size"); err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	if tcfg.Heartbeat, err = pf.GetDuration("trace-heartbeat"); err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}
	if tcfg.OutputPath == "" || tcfg.OutputPath == "-" {
		tcfg.Output = cmd.ErrOrStderr()
	}

	tracer, err := trace.New(tcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	if !tracer.Enabled() {
		return tracer, func() {}, nil
	}

	var heartbeat *trace.Heartbeat
	if tcfg.Heartbeat > 0 {
		heartbeat = trace.StartHeartbeat(tracer, tcfg.Heartbeat)
	}
	cleanup := func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}

// dumpTraceOnPanic writes the ring buffer, if any, before the panic
// continues unwinding.
func dumpTraceOnPanic(tracer trace.Tracer, w io.Writer) {
	r := recover()
	if r == nil {
		return
	}
	if ring, ok := trace.Ring(tracer); ok {
		fmt.Fprintln(w, "trace: last events before panic:")
		_ = ring.Dump(w, trace.FormatText)
	}
	panic(r)
}
