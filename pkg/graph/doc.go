// Package graph defines the scene graph produced by evaluating a scene
// script or batch file. The graph is an immutable DAG of solid primitives,
// placements and groups; each evaluation builds a new one.
package graph
