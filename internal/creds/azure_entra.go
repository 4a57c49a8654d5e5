package creds

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// azurePostgreSQLScope is the OAuth scope under which Azure AD issues
// tokens for Azure Database for PostgreSQL.
const azurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"

// AzureEntraIssuer acquires Entra ID access tokens used as PostgreSQL
// passwords. With tenant, client and secret set it authenticates as a
// service principal; otherwise it walks the DefaultAzureCredential chain
// (environment, workload identity, managed identity, Azure CLI).
type AzureEntraIssuer struct {
	tenantID     string
	clientID     string
	clientSecret string

	credential azcore.TokenCredential
}

// NewAzureEntraIssuer creates an issuer. Credential construction is
// deferred to the first IssueToken call.
func NewAzureEntraIssuer(tenantID, clientID, clientSecret string) *AzureEntraIssuer {
	return &AzureEntraIssuer{
		tenantID:     tenantID,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// IssueToken acquires an access token. host, port and user are unused:
// Entra ID tokens are scoped to the service, not the endpoint.
func (p *AzureEntraIssuer) IssueToken(ctx context.Context, host string, port int, user string) (string, error) {
	if p.credential == nil {
		var err error
		if p.tenantID != "" && p.clientID != "" && p.clientSecret != "" {
			p.credential, err = azidentity.NewClientSecretCredential(p.tenantID, p.clientID, p.clientSecret, nil)
		} else {
			p.credential, err = azidentity.NewDefaultAzureCredential(nil)
		}
		if err != nil {
			return "", fmt.Errorf("create Azure credential: %w", err)
		}
	}

	token, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{azurePostgreSQLScope},
	})
	if err != nil {
		return "", fmt.Errorf("azure token acquisition failed: %w", err)
	}
	return token.Token, nil
}

// String returns a description without secrets.
func (p *AzureEntraIssuer) String() string {
	if p.tenantID != "" {
		return fmt.Sprintf("AzureEntraIssuer(tenant=%s, client=%s)", p.tenantID, p.clientID)
	}
	return "AzureEntraIssuer(default chain)"
}
