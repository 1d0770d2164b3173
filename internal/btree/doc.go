// Package btree implements an in-memory, generic B-tree: an ordered
// associative container parameterized by a user-supplied key extraction
// function and comparators.
//
// A Tree is a balanced multi-way search tree in which every internal node
// holds between t-1 and 2t-1 objects and between t and 2t children, where t
// (the minimum degree) is fixed at construction and t >= 2. Search,
// insertion, deletion, in-order traversal, and predecessor/successor
// navigation are all supported.
//
// The tree is single-threaded: callers that share a *Tree across goroutines
// must serialize access with their own mutex. Nothing here allocates a
// lock, logs, or prints - that is the demonstration layer's job.
package btree
