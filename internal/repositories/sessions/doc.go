// Package sessions persists issued session records. A session is valid
// only while a record with its id exists and has not expired.
//
// Times are stored as unix nanoseconds. DeleteExpired removes every record
// whose expiry is at or before the given instant.
package sessions
