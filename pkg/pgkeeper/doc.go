// Package pgkeeper manages a single, lazily-established PostgreSQL
// connection on behalf of application code.
//
// A Client owns at most one live connection. The connection is opened on
// first use, reused while fresh, and transparently re-established when it
// is closed, stale, or lost mid-statement. Credentials are resolved at
// connect time: a sentinel value in the password field ("IAM",
// "SECRET-MANAGED", "AZURE-ENTRA") is replaced with a short-lived token or
// an externally managed secret, so expiring credentials never outlive the
// connection they authenticated.
//
// Transient connection failures are retried with exponential backoff
// (three attempts, delays of 1s and 8s). Query and logic errors are never
// retried. Queries are executed by name, loaded from .sql files in a
// configured directory, or as literal SQL.
//
// A Client is not safe for concurrent use; give each worker its own
// instance or guard calls with an external mutex.
package pgkeeper
