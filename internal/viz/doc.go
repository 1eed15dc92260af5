// Package viz renders reconstruction runs in the terminal.
//
//   - [RenderReport]: lipgloss summary panel of a finished run
//   - [PlotMagnitudes], [PlotHistory], [PlotSweep]: asciigraph line charts
//   - [ProgressModel]: Bubble Tea view of a running minimization
//
// # Key Bindings (ProgressModel)
//
//	T     - Cycle color themes
//	Q/Esc - Cancel the run and quit
package viz
