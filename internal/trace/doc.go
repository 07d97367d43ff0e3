// Package trace records spans of the analysis pipeline.
//
// A tracer is chosen once per CLI invocation and travels through the
// driver in a context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, "analyze", 0)
//	defer span.End("")
//
// Scopes order events from coarse to fine: the driver, a pipeline pass
// (tokenize, parse, sema_declare, sema_resolve, sema_check), one translation
// unit, and single engine requests such as an instantiation or an overload
// set. The level decides which scopes are kept; LevelDebug keeps all.
//
// Events go to a stream (text, ndjson or chrome trace_event JSON), to an
// in-memory ring for post-mortem dumps, or both.
package trace
