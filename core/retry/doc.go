// Package retry decides between retrying and giving up on a module load and
// remembers which modules have failed permanently.
//
// # Policy
//
// Policy bounds the number of attempts and computes the exponential backoff
// delay min(base * 2^attempt, cap). Wait sleeps for that delay unless the
// context ends first.
//
// # History
//
// History persists the set of permanently failed canonical paths through a
// kvstore.Store so the record survives a restart of the host. It is cleared
// by an explicit clear or fix action.
package retry
