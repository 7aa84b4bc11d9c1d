// Package render draws analysis results for terminals and browsers.
//
// All renderers hang off an explicit [Style] built once from a [Theme] and
// the configured plot sizes:
//
//   - [Canvas]: braille dot canvas with data [Viewport] mapping
//   - [Style.Quiver], [Style.Scatter], [Style.Lines], [Style.Cobweb],
//     [Style.Bifurcation], [Style.Attractor]: terminal plots
//   - [Style.FieldSVG], [Style.PathSVG], [Style.ScatterSVG]: SVG documents,
//     embeddable with [DataURI]
package render
