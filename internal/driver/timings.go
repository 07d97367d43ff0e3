package driver

import (
	"encoding/json"
	"fmt"

	"cppsema/internal/diag"
	"cppsema/internal/observ"
	"cppsema/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
	Slowest []observ.FileReport  `json:"slowest,omitempty"`
}

// AppendTimingDiagnostic adds an ObsTimings info diagnostic whose single
// note carries the timing report as JSON. It is added even when the bag
// is full.
func AppendTimingDiagnostic(bag *diag.Bag, report observ.Report) {
	if bag == nil {
		return
	}
	data, err := json.Marshal(timingPayload{Kind: "pipeline", TotalMS: report.TotalMS, Phases: report.Phases, Slowest: report.Slowest})
	if err != nil {
		return
	}
	d := diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, fmt.Sprintf("timings: total %.2f ms", report.TotalMS)).
		WithNote(source.Span{}, string(data))
	if bag.Add(d) {
		return
	}
	overflow := diag.NewBag(1)
	overflow.Add(d)
	bag.Merge(overflow)
}
