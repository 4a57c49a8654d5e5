// Package config loads the optional pgkeeper.yaml project file. The file
// supplies connection parameters and CLI defaults; everything in it can be
// overridden by flags or environment variables.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConnectionConfig describes the target database. Password may hold a
// credential sentinel (IAM, SECRET-MANAGED, AZURE-ENTRA); storing a real
// password here works but is discouraged.
type ConnectionConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Username          string `yaml:"username"`
	Password          string `yaml:"password,omitempty"`
	Database          string `yaml:"database"`
	AppName           string `yaml:"app_name,omitempty"`
	SSLMode           string `yaml:"sslmode,omitempty"`
	AWSRegion         string `yaml:"aws_region,omitempty"`
	AzureTenantID     string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID     string `yaml:"azure_client_id,omitempty"`
	AzureClientSecret string `yaml:"azure_client_secret,omitempty"`
	GoogleInstance    string `yaml:"google_instance,omitempty"`
}

// TunnelConfig describes an SSH tunnel through which the database is
// reached. KeyPath points at a private key file.
type TunnelConfig struct {
	SSHHost string `yaml:"ssh_host"`
	SSHUser string `yaml:"ssh_user"`
	KeyPath string `yaml:"key_path"`
}

// ProjectConfig is the full pgkeeper.yaml document.
type ProjectConfig struct {
	// EnvPrefix, when set, sources connection parameters from
	// <EnvPrefix>_DB_HOST and friends instead of the Connection block.
	EnvPrefix  string           `yaml:"env_prefix,omitempty"`
	Connection ConnectionConfig `yaml:"connection"`
	QueryDir   string           `yaml:"query_dir,omitempty"`
	Tunnel     *TunnelConfig    `yaml:"tunnel,omitempty"`
}

const ConfigFileName = "pgkeeper.yaml"

// Load reads pgkeeper.yaml from sourcePath.
func Load(sourcePath string) (*ProjectConfig, error) {
	configPath := filepath.Join(sourcePath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
