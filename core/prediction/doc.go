// Package prediction defines the scoring oracle consumed by the optimizer: a
// pure function turning dispatch/technician attributes into a success
// probability and a duration estimate. Concrete implementations (business
// rules, an external model, or a weighted blend) are selected at construction
// time; the optimizer never inspects which one is active.
package prediction
