// Package ports defines the narrow interfaces between the survey engine and
// its external collaborators: the questionnaire graph store, the user
// profile, survey persistence and distributed locking.
//
// The engine never talks to a datastore directly; it consumes fully-loaded
// values through these ports and returns new values for the caller to
// persist.
package ports
