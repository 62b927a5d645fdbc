// Package neighbors builds k-nearest-neighbor graphs over sample sets.
//
// Two providers implement the same contract: Exact performs brute-force
// search and is the recall gold standard; HNSW builds a hierarchical
// navigable small world graph and trades recall for speed on large
// sample sets. The diffusion pipeline only depends on the Provider
// interface, so callers can plug in their own backend.
//
// Every provider returns a Graph with exactly k edges per row, the self
// edge removed. Both built-in providers parallelize queries across a
// worker pool; their query paths are safe for concurrent use.
package neighbors
