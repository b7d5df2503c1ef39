package tenant

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/siserv-tech/driverbot-backend/internal/models"
)

// Firebird defaults used when a tenant row leaves them out
const (
	DefaultPort     = 3050
	DefaultUser     = "SYSDBA"
	DefaultPassword = "masterkey"
)

// ConfigError reports a tenant whose connection settings are unusable
type ConfigError struct {
	TenantID int64
	Missing  []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tenant=%d missing configuration: %s", e.TenantID, strings.Join(e.Missing, ", "))
}

// Descriptor is the derived, immutable connection target of a tenant database
type Descriptor struct {
	TenantID int64
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Version  string
}

var hostPrefixed = regexp.MustCompile(`^([^:]+)(?:/(\d+))?:(.+)$`)

// Derive builds a descriptor from a directory row. Host and port come from their
// columns, or from a legacy "host[/port]:database" db_path when absent.
func Derive(t *models.Tenant) (Descriptor, error) {
	if t == nil {
		return Descriptor{}, fmt.Errorf("tenant is nil")
	}

	host := strings.TrimSpace(t.DBHost)
	port := 0
	if t.DBPort != nil {
		port = *t.DBPort
	}
	database := strings.TrimSpace(t.DBPath)

	if (host == "" || port == 0) && database != "" {
		if h, p, db, ok := parseLegacyPath(database); ok {
			if host == "" {
				host = h
			}
			if port == 0 {
				port = p
			}
			database = db
		}
	}
	database = stripHost(database, host)

	d := Descriptor{
		TenantID: t.ID,
		Host:     host,
		Port:     port,
		Database: database,
		User:     t.DBUser,
		Password: t.DBPassword,
		Version:  strings.TrimSpace(t.DBVersion),
	}
	if d.User == "" {
		d.User = DefaultUser
	}
	if d.Password == "" {
		d.Password = DefaultPassword
	}

	var missing []string
	if d.Host == "" {
		missing = append(missing, "db_host")
	}
	if d.Port <= 0 {
		missing = append(missing, "db_port")
	}
	if d.Database == "" {
		missing = append(missing, "db_path")
	}
	if len(missing) > 0 {
		return Descriptor{}, &ConfigError{TenantID: t.ID, Missing: missing}
	}
	return d, nil
}

// parseLegacyPath splits "host[/port]:database"; the port defaults to 3050
func parseLegacyPath(path string) (host string, port int, database string, ok bool) {
	idx := strings.Index(path, ":")
	if idx <= 0 {
		return "", 0, "", false
	}
	hostPart := strings.TrimSpace(path[:idx])
	database = strings.TrimSpace(path[idx+1:])
	if hostPart == "" || database == "" {
		return "", 0, "", false
	}

	host, port = hostPart, DefaultPort
	if slash := strings.Index(hostPart, "/"); slash > 0 {
		host = strings.TrimSpace(hostPart[:slash])
		if p, err := strconv.Atoi(strings.TrimSpace(hostPart[slash+1:])); err == nil {
			port = p
		}
	}
	if host == "" {
		return "", 0, "", false
	}
	return host, port, database, true
}

// stripHost drops a "host:" prefix from the database path when it repeats the host
func stripHost(database, host string) string {
	if database == "" || host == "" {
		return database
	}
	m := hostPrefixed.FindStringSubmatch(database)
	if m != nil && strings.TrimSpace(m[1]) == host {
		return strings.TrimSpace(m[3])
	}
	return database
}

// Legacy reports whether the server speaks the 2.5 wire protocol
func (d Descriptor) Legacy() bool {
	return strings.HasPrefix(d.Version, "2.5")
}

// WithCredentials returns a copy using other credentials
func (d Descriptor) WithCredentials(user, password string) Descriptor {
	d.User = user
	d.Password = password
	return d
}

// UsesDefaultCredentials reports whether the descriptor already uses SYSDBA/masterkey
func (d Descriptor) UsesDefaultCredentials() bool {
	return d.User == DefaultUser && d.Password == DefaultPassword
}

// DSN renders the firebirdsql connection string
func (d Descriptor) DSN(charset string) string {
	params := url.Values{}
	if charset != "" {
		params.Set("charset", charset)
	}
	if d.Legacy() {
		params.Set("wire_crypt", "false")
	}

	dsn := fmt.Sprintf("%s@%s:%d/%s",
		url.UserPassword(d.User, d.Password).String(), d.Host, d.Port, d.Database)
	if len(params) > 0 {
		dsn += "?" + params.Encode()
	}
	return dsn
}

// String is safe to log
func (d Descriptor) String() string {
	return fmt.Sprintf("tenant=%d %s:%d/%s user=%s", d.TenantID, d.Host, d.Port, d.Database, d.User)
}
