package oceanbase

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

// buildDSN formats the driver DSN; OceanBase listens on 2881 by default.
func buildDSN(cfg *Config) string {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 2881
	}

	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	dsn.DBName = cfg.DBName
	dsn.ParseTime = true
	return dsn.FormatDSN()
}
