package pgkeeper

import "time"

// Sentinel password values. When the password field of ConnParams holds one
// of these, real credentials are fetched from the matching provider just
// before connecting and are discarded when the connection closes.
const (
	// PasswordIAM requests a short-lived RDS IAM authentication token
	// issued for the connection's host, port and user.
	PasswordIAM = "IAM"

	// PasswordSecretManaged requests a user/password pair looked up in the
	// configured secret store, keyed by the connection's user field.
	PasswordSecretManaged = "SECRET-MANAGED"

	// PasswordAzureEntra requests an Azure Entra ID access token for
	// Azure Database for PostgreSQL.
	PasswordAzureEntra = "AZURE-ENTRA"
)

const (
	// StalenessThreshold is how long a connection may sit idle before
	// Acquire discards it and reconnects, even if the handle still reports
	// itself open. Guards against silently-dead connections the driver
	// has not detected.
	StalenessThreshold = 60 * time.Second

	// RetryMaxAttempts is the total number of attempts for a query,
	// including the first one.
	RetryMaxAttempts = 3

	// RetryInitialDelay is the backoff delay after the first failed attempt.
	RetryInitialDelay = 1 * time.Second

	// RetryBackoffMultiplier scales the delay between attempts:
	// 1s after the first failure, 8s after the second.
	RetryBackoffMultiplier = 8

	// AdminDatabase is the bootstrap database used for administrative
	// operations such as CREATE DATABASE.
	AdminDatabase = "postgres"

	// DefaultQueryDir is where named queries are looked up when no other
	// query source is configured.
	DefaultQueryDir = "sql"

	// DefaultPort is the PostgreSQL default port.
	DefaultPort = 5432
)

// Exit codes for the pgkeeper CLI, following Unix conventions.
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitUsageError      = 2
	ExitPanic           = 3
	ExitConfigError     = 10
	ExitConnectionError = 11
	ExitCredentialError = 12
	ExitQueryError      = 13
)
