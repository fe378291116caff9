// Package viz renders trajectories for the terminal and as PNG figures.
//
// Terminal output uses asciigraph for the position traces and lipgloss
// for the run summaries printed by the CLI. [WritePNG] and [SavePNG] draw
// both particle positions against time with gonum/plot.
package viz
