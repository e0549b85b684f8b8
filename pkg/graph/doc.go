// Package graph walks undirected adjacency graphs given as a neighbor
// function over comparable node keys. The world uses it for attachment
// graphs of solids, keyed by handle.
package graph
