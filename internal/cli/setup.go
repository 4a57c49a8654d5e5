package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vvka-141/pgkeeper/internal/config"
	"github.com/vvka-141/pgkeeper/internal/logging"
	"github.com/vvka-141/pgkeeper/pkg/pgkeeper"
)

// setupClient builds a pgkeeper.Client from flags, pgkeeper.yaml and the
// environment, starting the configured tunnel if any. The returned cleanup
// disconnects and tears the tunnel down; it is safe to call on all paths.
func setupClient(ctx context.Context, cmd *cobra.Command) (*pgkeeper.Client, func(), error) {
	// Load .env before resolving anything; absence is not an error.
	_ = godotenv.Load()

	verbose := getVerboseFlag(cmd)
	configDir, _ := cmd.Flags().GetString("config")
	envPrefix, _ := cmd.Flags().GetString("env")
	queryDir, _ := cmd.Flags().GetString("queries")

	cfg, err := config.Load(configDir)
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil, fmt.Errorf("load %s: %w: %w", config.ConfigFileName, err, pgkeeper.ErrInvalidConfig)
		}
		cfg = &config.ProjectConfig{}
	}

	if envPrefix == "" {
		envPrefix = cfg.EnvPrefix
	}

	params, err := resolveParams(envPrefix, cfg)
	if err != nil {
		return nil, nil, err
	}

	if params.Password == "" {
		params.Password, err = promptPassword(params.User)
		if err != nil {
			return nil, nil, err
		}
	}

	opts := []pgkeeper.Option{
		pgkeeper.WithLogger(logging.NewConsoleLogger(verbose)),
	}
	if queryDir == "" {
		queryDir = cfg.QueryDir
	}
	if queryDir != "" {
		opts = append(opts, pgkeeper.WithQueryDir(queryDir))
	}

	conn := cfg.Connection
	switch params.Password {
	case pgkeeper.PasswordIAM:
		opts = append(opts, pgkeeper.WithIAMAuth(conn.AWSRegion))
	case pgkeeper.PasswordSecretManaged:
		opts = append(opts, pgkeeper.WithSecretsManager())
	case pgkeeper.PasswordAzureEntra:
		opts = append(opts, pgkeeper.WithAzureEntra(conn.AzureTenantID, conn.AzureClientID, conn.AzureClientSecret))
	}
	if conn.GoogleInstance != "" {
		opts = append(opts, pgkeeper.WithGoogleCloudSQL(conn.GoogleInstance))
	}

	client, err := pgkeeper.New(params, opts...)
	if err != nil {
		return nil, nil, err
	}

	if t := cfg.Tunnel; t != nil {
		if err := client.TunnelStart(ctx, t.SSHHost, t.SSHUser, t.KeyPath); err != nil {
			return nil, nil, err
		}
	}

	cleanup := func() {
		if cfg.Tunnel != nil {
			if err := client.TunnelStop(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: tunnel shutdown: %v\n", err)
			}
			return
		}
		if err := client.Disconnect(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: disconnect: %v\n", err)
		}
	}
	return client, cleanup, nil
}

// resolveParams prefers the environment prefix over the yaml connection
// block; one of the two must be present.
func resolveParams(envPrefix string, cfg *config.ProjectConfig) (pgkeeper.ConnParams, error) {
	if envPrefix != "" {
		return pgkeeper.ParamsFromEnv(strings.ToUpper(envPrefix))
	}

	conn := cfg.Connection
	if conn.Host == "" {
		return pgkeeper.ConnParams{}, fmt.Errorf(
			"no connection configured: set --env, env_prefix, or a connection block in %s: %w",
			config.ConfigFileName, pgkeeper.ErrInvalidConfig)
	}

	params := pgkeeper.ConnParams{
		Host:     conn.Host,
		Port:     conn.Port,
		User:     conn.Username,
		Password: conn.Password,
		Database: conn.Database,
		AppName:  conn.AppName,
		SSLMode:  conn.SSLMode,
	}
	if params.Port == 0 {
		params.Port = pgkeeper.DefaultPort
	}
	return params, nil
}

// promptPassword reads a password from the terminal without echo. A
// non-interactive stdin is a configuration error rather than a hang.
func promptPassword(user string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password for %q is empty and stdin is not a terminal: %w",
			user, pgkeeper.ErrInvalidConfig)
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", user)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

// parseQueryArgs turns repeated --arg key=value flags into named query
// arguments. Returns nil for an empty list so queries run positional-free.
func parseQueryArgs(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	args := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --arg %q, expected key=value: %w", pair, pgkeeper.ErrInvalidConfig)
		}
		args[key] = value
	}
	return args, nil
}
