package postgres

import (
	"fmt"
	"strings"
)

// buildDSN builds a lib/pq keyword/value connection string.
// Values are single-quoted so passwords containing spaces survive.
func buildDSN(cfg *Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quote(host), port, quote(cfg.User), quote(cfg.Password), quote(cfg.DBName), quote(sslMode))
}

func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
