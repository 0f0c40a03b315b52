package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/hashicorp/vault/api"
)

// SecretRedisPassword is the key holding the report store's Redis password.
const SecretRedisPassword = "redis_password"

// ErrSecretNotFound is returned when a provider has no value for a key.
var ErrSecretNotFound = errors.New("secret not found")

// SecretManager interface for retrieving secrets
type SecretManager interface {
	GetSecret(key string) (string, error)
}

// EnvSecretManager uses environment variables (default)
type EnvSecretManager struct{}

func (e *EnvSecretManager) GetSecret(key string) (string, error) {
	envKey := EnvPrefix + "_" + strings.ToUpper(key)
	value := os.Getenv(envKey)
	if value == "" {
		return "", fmt.Errorf("%w: environment variable %s not set", ErrSecretNotFound, envKey)
	}
	return value, nil
}

// VaultSecretManager retrieves secrets from HashiCorp Vault
type VaultSecretManager struct {
	path   string
	client *api.Client
}

func NewVaultSecretManager(config *Config) (*VaultSecretManager, error) {
	client, err := api.NewClient(&api.Config{
		Address: config.Secrets.Vault.Address,
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	if config.Secrets.Vault.Token != "" {
		client.SetToken(config.Secrets.Vault.Token)
	} else if token := os.Getenv("VAULT_TOKEN"); token != "" {
		client.SetToken(token)
	}

	path := config.Secrets.Vault.Path
	if path == "" {
		path = "secret/appshell"
	}
	return &VaultSecretManager{path: path, client: client}, nil
}

// GetSecret reads key from the configured path. KV version 2 responses
// nest the values under "data".
func (v *VaultSecretManager) GetSecret(key string) (string, error) {
	secret, err := v.client.Logical().Read(v.path)
	if err != nil {
		return "", fmt.Errorf("failed to read from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%w: nothing at Vault path %s", ErrSecretNotFound, v.path)
	}

	data := secret.Data
	if nested, ok := data["data"].(map[string]interface{}); ok {
		data = nested
	}

	value, ok := data[key]
	if !ok {
		return "", fmt.Errorf("%w: key %s not in Vault secret", ErrSecretNotFound, key)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("secret value for key %s is not a string", key)
	}
	return strValue, nil
}

// AWSSecretManager retrieves secrets from AWS Secrets Manager
type AWSSecretManager struct {
	secretID string
	client   *secretsmanager.SecretsManager
}

func NewAWSSecretManager(config *Config) (*AWSSecretManager, error) {
	awsConfig := &aws.Config{
		Region: aws.String(config.Secrets.AWS.Region),
	}
	if config.Secrets.AWS.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Secrets.AWS.Endpoint)
	}
	if config.Secrets.AWS.AccessKey != "" && config.Secrets.AWS.SecretKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			config.Secrets.AWS.AccessKey,
			config.Secrets.AWS.SecretKey,
			"",
		)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	secretID := config.Secrets.AWS.SecretID
	if secretID == "" {
		secretID = "appshell/secrets"
	}
	return &AWSSecretManager{secretID: secretID, client: secretsmanager.New(sess)}, nil
}

// GetSecret reads key from the JSON object stored in the configured secret.
func (a *AWSSecretManager) GetSecret(key string) (string, error) {
	result, err := a.client.GetSecretValue(&secretsmanager.GetSecretValueInput{
		SecretId: aws.String(a.secretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret from AWS: %w", err)
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("%w: AWS secret %s has no string value", ErrSecretNotFound, a.secretID)
	}

	var secrets map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &secrets); err != nil {
		return "", fmt.Errorf("failed to parse AWS secret JSON: %w", err)
	}

	value, ok := secrets[key]
	if !ok {
		return "", fmt.Errorf("%w: key %s not in AWS secret", ErrSecretNotFound, key)
	}
	return value, nil
}

// NewSecretManager creates the appropriate secret manager based on configuration
func NewSecretManager(config *Config) (SecretManager, error) {
	switch config.Secrets.Provider {
	case "", "env":
		return &EnvSecretManager{}, nil
	case "vault":
		return NewVaultSecretManager(config)
	case "aws":
		return NewAWSSecretManager(config)
	default:
		return nil, fmt.Errorf("unsupported secret provider: %s", config.Secrets.Provider)
	}
}

// LoadSecrets fills secrets that are not set in configuration from the
// configured provider. Only enabled components ask for their secrets, and
// a secret the provider does not hold leaves the setting empty.
func LoadSecrets(config *Config) error {
	if !config.Report.Redis.Enabled || config.Report.Redis.Password != "" {
		return nil
	}

	manager, err := NewSecretManager(config)
	if err != nil {
		return fmt.Errorf("failed to create secret manager: %w", err)
	}

	password, err := manager.GetSecret(SecretRedisPassword)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load redis password: %w", err)
	}
	config.Report.Redis.Password = password
	return nil
}
