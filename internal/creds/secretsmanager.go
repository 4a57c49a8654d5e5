package creds

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerAPI is the subset of the AWS Secrets Manager client used
// here, split out so tests can inject a fake.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerStore looks up database credentials in AWS Secrets
// Manager. The secret is expected to be a JSON document with "username"
// (or "user") and "password" keys, the layout RDS-managed secrets use.
//
// Values are not cached: the store is consulted once per connect, so a
// rotated secret takes effect on the next reconnect.
type SecretsManagerStore struct {
	client SecretsManagerAPI
}

// NewSecretsManagerStore creates a store that builds its client from the
// default AWS credential chain on first use.
func NewSecretsManagerStore() *SecretsManagerStore {
	return &SecretsManagerStore{}
}

// NewSecretsManagerStoreWithClient creates a store with an injected client.
func NewSecretsManagerStoreWithClient(client SecretsManagerAPI) *SecretsManagerStore {
	return &SecretsManagerStore{client: client}
}

// GetSecret fetches the secret identified by id and returns the user and
// password it holds. An absent username key returns an empty user, leaving
// the configured user unchanged.
func (s *SecretsManagerStore) GetSecret(ctx context.Context, id string) (string, string, error) {
	client := s.client
	if client == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return "", "", fmt.Errorf("load AWS config: %w", err)
		}
		client = secretsmanager.NewFromConfig(cfg)
		s.client = client
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &id,
	})
	if err != nil {
		return "", "", fmt.Errorf("get secret %s: %w", id, err)
	}
	if out.SecretString == nil {
		return "", "", fmt.Errorf("secret %s has no string value", id)
	}

	var payload struct {
		Username string `json:"username"`
		User     string `json:"user"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal([]byte(*out.SecretString), &payload); err != nil {
		return "", "", fmt.Errorf("parse secret %s as JSON: %w", id, err)
	}

	user := payload.Username
	if user == "" {
		user = payload.User
	}
	if payload.Password == "" {
		return "", "", fmt.Errorf("secret %s has no password key", id)
	}

	return user, payload.Password, nil
}
