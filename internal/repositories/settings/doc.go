// Package settings is a small key/value store kept in the database. The
// master credential salt and verifier live here.
package settings
