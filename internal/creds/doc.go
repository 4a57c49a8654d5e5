// Package creds implements the credential providers behind the sentinel
// password values: AWS RDS IAM tokens, AWS Secrets Manager secrets, and
// Azure Entra ID tokens. Providers are constructed cheaply and defer all
// network and credential-chain work to the call that needs it, so a
// provider can be wired unconditionally and only costs anything when its
// sentinel is actually used.
package creds
