// Package events defines the optimizer events emitted on the event bus.
//
// Available event types:
//   - AssignmentEvent: a dispatch was committed to a technician
//   - FallbackEvent: a dispatch needed the relaxation ladder
//   - UnassignedEvent: a dispatch could not be assigned
//   - PassEvent: a post-optimization pass completed
package events
