package pgkeeper

import (
	"context"
	"fmt"
)

// CredentialResolver replaces sentinel password values with live
// credentials just before connecting. Resolution is a pure transformation:
// the caller's parameters are never mutated, and resolved secrets live
// only inside the effective copy handed to the driver.
type CredentialResolver struct {
	iam    TokenIssuer
	azure  TokenIssuer
	secret SecretStore
}

// NewCredentialResolver creates a resolver with the given providers. Any
// provider may be nil; resolving a sentinel whose provider is missing is a
// credential error.
func NewCredentialResolver(iam TokenIssuer, azure TokenIssuer, secret SecretStore) *CredentialResolver {
	return &CredentialResolver{iam: iam, azure: azure, secret: secret}
}

// Resolve returns a copy of params with any sentinel password replaced by
// live credentials. Exactly one sentinel check applies per call;
// unrecognized password values pass through unchanged. Provider failures
// propagate wrapped in ErrCredential and are not retried here.
func (r *CredentialResolver) Resolve(ctx context.Context, params ConnParams) (ConnParams, error) {
	out := params.clone()

	switch params.Password {
	case PasswordIAM:
		if r.iam == nil {
			return out, fmt.Errorf("%w: password sentinel %q set but no IAM token issuer configured",
				ErrCredential, PasswordIAM)
		}
		token, err := r.iam.IssueToken(ctx, params.Host, params.Port, params.User)
		if err != nil {
			return out, fmt.Errorf("%w: issue IAM token for %s@%s: %w",
				ErrCredential, params.User, params.Addr(), err)
		}
		out.Password = token

	case PasswordAzureEntra:
		if r.azure == nil {
			return out, fmt.Errorf("%w: password sentinel %q set but no Azure token issuer configured",
				ErrCredential, PasswordAzureEntra)
		}
		token, err := r.azure.IssueToken(ctx, params.Host, params.Port, params.User)
		if err != nil {
			return out, fmt.Errorf("%w: issue Azure Entra token for %s: %w",
				ErrCredential, params.User, err)
		}
		out.Password = token

	case PasswordSecretManaged:
		if r.secret == nil {
			return out, fmt.Errorf("%w: password sentinel %q set but no secret store configured",
				ErrCredential, PasswordSecretManaged)
		}
		user, password, err := r.secret.GetSecret(ctx, params.User)
		if err != nil {
			return out, fmt.Errorf("%w: look up secret for %q: %w",
				ErrCredential, params.User, err)
		}
		if user != "" {
			out.User = user
		}
		out.Password = password
	}

	return out, nil
}
