package pgkeeper

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable suffixes for ParamsFromEnv. The full variable name
// is "<PREFIX>_DB_<SUFFIX>", e.g. STAGING_DB_HOST.
const (
	envSuffixHost = "_DB_HOST"
	envSuffixPort = "_DB_PORT"
	envSuffixUser = "_DB_USER"
	envSuffixPass = "_DB_PASS"
	envSuffixName = "_DB_NAME"
	envSuffixApp  = "_DB_APP"
)

// ParamsFromEnv assembles connection parameters from environment variables
// keyed by prefix: <PREFIX>_DB_HOST, _PORT, _USER, _PASS, _NAME and the
// optional _APP. A missing required variable is a configuration error
// naming the variable.
func ParamsFromEnv(prefix string) (ConnParams, error) {
	if prefix == "" {
		return ConnParams{}, fmt.Errorf("environment prefix is required: %w", ErrInvalidConfig)
	}

	var params ConnParams

	host, err := requireEnv(prefix + envSuffixHost)
	if err != nil {
		return ConnParams{}, err
	}
	params.Host = host

	portStr, err := requireEnv(prefix + envSuffixPort)
	if err != nil {
		return ConnParams{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ConnParams{}, fmt.Errorf("$%s%s=%q is not a valid port: %w",
			prefix, envSuffixPort, portStr, ErrInvalidConfig)
	}
	params.Port = port

	params.User, err = requireEnv(prefix + envSuffixUser)
	if err != nil {
		return ConnParams{}, err
	}
	params.Password, err = requireEnv(prefix + envSuffixPass)
	if err != nil {
		return ConnParams{}, err
	}
	params.Database, err = requireEnv(prefix + envSuffixName)
	if err != nil {
		return ConnParams{}, err
	}

	if app, ok := os.LookupEnv(prefix + envSuffixApp); ok {
		params.AppName = app
	}

	return params, nil
}

func requireEnv(name string) (string, error) {
	val, ok := os.LookupEnv(name)
	if !ok || val == "" {
		return "", fmt.Errorf("environment variable %s is not set: %w", name, ErrInvalidConfig)
	}
	return val, nil
}
