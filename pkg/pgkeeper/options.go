package pgkeeper

import (
	"github.com/vvka-141/pgkeeper/internal/creds"
	"github.com/vvka-141/pgkeeper/internal/queries"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDriver replaces the default pgx driver. Mainly for tests.
func WithDriver(driver Driver) Option {
	return func(c *Client) { c.driver = driver }
}

// WithQueryDir sets the directory named queries are loaded from as
// <dir>/<name>.sql. Names beginning with "/" or "." are used as paths
// verbatim.
func WithQueryDir(dir string) Option {
	return func(c *Client) { c.queries = queries.NewDirSource(dir) }
}

// WithQuerySource replaces the query source entirely.
func WithQuerySource(source QuerySource) Option {
	return func(c *Client) { c.queries = source }
}

// WithIAMAuth enables resolution of the "IAM" password sentinel via AWS
// RDS IAM authentication tokens. An empty region falls back to $AWS_REGION.
func WithIAMAuth(region string) Option {
	return func(c *Client) { c.iam = creds.NewAWSIAMIssuer(region) }
}

// WithTokenIssuer sets a custom issuer for the "IAM" password sentinel.
func WithTokenIssuer(issuer TokenIssuer) Option {
	return func(c *Client) { c.iam = issuer }
}

// WithSecretsManager enables resolution of the "SECRET-MANAGED" password
// sentinel via AWS Secrets Manager, using the default credential chain.
func WithSecretsManager() Option {
	return func(c *Client) { c.secret = creds.NewSecretsManagerStore() }
}

// WithSecretStore sets a custom store for the "SECRET-MANAGED" sentinel.
func WithSecretStore(store SecretStore) Option {
	return func(c *Client) { c.secret = store }
}

// WithAzureEntra enables resolution of the "AZURE-ENTRA" password
// sentinel. With empty arguments the default Azure credential chain is
// used (environment, managed identity, CLI); otherwise service principal
// authentication.
func WithAzureEntra(tenantID, clientID, clientSecret string) Option {
	return func(c *Client) { c.azure = creds.NewAzureEntraIssuer(tenantID, clientID, clientSecret) }
}

// WithAzureIssuer sets a custom issuer for the "AZURE-ENTRA" sentinel.
func WithAzureIssuer(issuer TokenIssuer) Option {
	return func(c *Client) { c.azure = issuer }
}

// WithGoogleCloudSQL dials connections through the Cloud SQL Go Connector
// with IAM authentication. instance is "project:region:instance".
func WithGoogleCloudSQL(instance string) Option {
	return func(c *Client) { c.googleInstance = instance }
}

// WithTunnel installs an already-configured tunnel. The tunnel must be
// started before queries are executed.
func WithTunnel(t Tunnel) Option {
	return func(c *Client) { c.tunnel = t }
}
