// Package geometry derives shapes from model state and pushes them to a
// [shape.Renderer].
//
// A node becomes a circle, rect or ellipse placed by a pure translation
// matrix. An edge becomes a path whose end points sit on the boundary of
// each endpoint shape, pushed outward by half that node's line width: for a
// circle of radius r and line width w the anchor lies r + w/2 from the
// centre. Quadratic edges aim their anchors at the control point and self
// loops leave from the top of the node. A group becomes a box around its
// visible members.
//
// [Synchronizer.Sync] is incremental: only the ids it is given are
// recomputed, everything else keeps its shape and handle.
package geometry
