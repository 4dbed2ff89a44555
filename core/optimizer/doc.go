// Package optimizer implements the dispatch optimization engine: a
// constraint evaluator with a progressive relaxation ladder, a weighted
// greedy assignment phase, and a bounded local-search phase of pairwise
// swaps and single reassignments.
//
// The only mutable shared structure is the schedule state; candidate scoring
// reads it concurrently while commits are serialized by the engine. The one
// rule never relaxed at any level is calendar availability: a technician is
// never assigned a dispatch on a date without an Available=true entry.
package optimizer
