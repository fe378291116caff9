// Package analysis provides post-hoc statistics of simulated trajectories.
//
//   - [Diffusivity]: var(dx)/(2 dt) over the defined increments
//   - [MSD]: mean squared displacement averaged over time origins
//   - [DiffusivityFromMSD]: slope of the MSD through the origin
//   - [PowerSpectrum]: periodogram of a real series
//   - [Summarize]: per-particle comparison against configured diffusivities
//
// For free diffusion the increment estimate converges to the configured
// diffusivity as the number of steps grows:
//
//	dx := traj.Increments(0)
//	d := analysis.Diffusivity(dx, dt) // ≈ D1
package analysis
