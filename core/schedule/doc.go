// Package schedule implements the scheduling engine: availability lookup,
// conflict detection, technician assignment and the booking coordinator.
//
// All timestamps are handled in UTC. Conflict checks distinguish hard
// conflicts (double booking) from soft ones (travel buffer, outside hours,
// territory mismatch); only hard and non-overridden soft conflicts block a
// booking.
package schedule
