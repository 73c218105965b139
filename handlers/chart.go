package handlers

import (
	"fmt"
	"strings"

	"econudge-dashboard/models"
)

const (
	chartWidth  = 600.0
	chartHeight = 220.0
)

type chartView struct {
	Width  float64
	Height float64
	Area   string
	Line   string
	YMin   string
	YMax   string
}

// buildChart scales the history into an SVG area polygon and its top line.
func buildChart(h models.History) chartView {
	view := chartView{Width: chartWidth, Height: chartHeight}
	n := len(h.Points)
	if n == 0 {
		return view
	}

	lo, hi := h.Summary.Min, h.Summary.Max
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	lo -= pad
	hi += pad

	step := chartWidth
	if n > 1 {
		step = chartWidth / float64(n-1)
	}

	var line strings.Builder
	for i, p := range h.Points {
		x := float64(i) * step
		y := chartHeight - (p.DemandKVA-lo)/(hi-lo)*chartHeight
		if i > 0 {
			line.WriteByte(' ')
		}
		fmt.Fprintf(&line, "%.1f,%.1f", x, y)
	}

	lastX := float64(n-1) * step
	view.Line = line.String()
	view.Area = fmt.Sprintf("0,%.1f %s %.1f,%.1f", chartHeight, view.Line, lastX, chartHeight)
	view.YMin = fmt.Sprintf("%.0f", lo)
	view.YMax = fmt.Sprintf("%.0f", hi)
	return view
}
