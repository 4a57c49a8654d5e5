package pgkeeper

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// ConnParams holds the connection parameters for a PostgreSQL target.
//
// The value given to New is kept as the immutable base; an effective copy
// (sentinel passwords resolved, tunnel endpoint substituted) is derived
// fresh for every connect and discarded with the connection. Mutating a
// ConnParams after handing it to a Client has no effect.
type ConnParams struct {
	Host     string
	Port     int
	User     string
	Password string // real password or one of the Password* sentinels
	Database string

	// Optional.
	AppName          string
	SSLMode          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string
}

// Validate checks that the required fields are present.
func (p ConnParams) Validate() error {
	var errs []error
	if p.Host == "" {
		errs = append(errs, fmt.Errorf("host is required: %w", ErrInvalidConfig))
	}
	if p.Port < 0 || p.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range: %w", p.Port, ErrInvalidConfig))
	}
	if p.User == "" {
		errs = append(errs, fmt.Errorf("user is required: %w", ErrInvalidConfig))
	}
	if p.Database == "" {
		errs = append(errs, fmt.Errorf("database is required: %w", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// clone returns a deep copy so the derived effective parameters can never
// alias the base.
func (p ConnParams) clone() ConnParams {
	out := p
	if p.AdditionalParams != nil {
		out.AdditionalParams = make(map[string]string, len(p.AdditionalParams))
		for k, v := range p.AdditionalParams {
			out.AdditionalParams[k] = v
		}
	}
	return out
}

// ConnString renders the parameters as a PostgreSQL URI.
func (p ConnParams) ConnString() string {
	port := p.Port
	if port == 0 {
		port = DefaultPort
	}

	u := &url.URL{
		Scheme: "postgresql",
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(port)),
		Path:   "/" + p.Database,
	}

	if p.User != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.User, p.Password)
		} else {
			u.User = url.User(p.User)
		}
	}

	query := url.Values{}
	if p.SSLMode != "" {
		query.Set("sslmode", p.SSLMode)
	}
	if p.AppName != "" {
		query.Set("application_name", p.AppName)
	}
	if p.ConnectTimeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(p.ConnectTimeout.Seconds())))
	}
	for key, value := range p.AdditionalParams {
		query.Set(key, value)
	}

	u.RawQuery = query.Encode()
	return u.String()
}

// Addr returns "host:port" for token issuance and error messages. IPv6
// literal hosts are bracketed.
func (p ConnParams) Addr() string {
	port := p.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(p.Host, strconv.Itoa(port))
}

// FetchMode selects the result shape of a query call.
type FetchMode int

const (
	// FetchNone executes the statement and discards any result.
	FetchNone FetchMode = iota
	// FetchOne returns the first row, or nil when the result is empty.
	FetchOne
	// FetchAll returns every row in order; an empty result is an empty
	// slice, never nil.
	FetchAll
)

// String returns a human-readable name for the fetch mode.
func (m FetchMode) String() string {
	switch m {
	case FetchNone:
		return "none"
	case FetchOne:
		return "one"
	case FetchAll:
		return "all"
	default:
		return fmt.Sprintf("FetchMode(%d)", int(m))
	}
}

// Row is an ordered mapping from column name to value. Column order
// follows the statement's select list.
type Row struct {
	columns []string
	values  []interface{}
}

// NewRow builds a Row from parallel column and value slices.
func NewRow(columns []string, values []interface{}) Row {
	return Row{columns: columns, values: values}
}

// Columns returns the column names in result order.
func (r Row) Columns() []string { return r.columns }

// Values returns the values in result order.
func (r Row) Values() []interface{} { return r.values }

// Len returns the number of columns.
func (r Row) Len() int { return len(r.columns) }

// Get returns the value for the named column and whether it exists.
func (r Row) Get(column string) (interface{}, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}
	return nil, false
}
