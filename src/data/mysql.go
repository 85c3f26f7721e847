package data

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
)

const defaultMySQLAddr = "127.0.0.1:3306"

// MySQLDSN returns MYSQL_DSN when set. Otherwise it builds a DSN from
// MYSQL_HOST, MYSQL_USER, MYSQL_PASSWORD and MYSQL_DATABASE.
func MySQLDSN() (string, error) {
	if dsn := strings.TrimSpace(os.Getenv("MYSQL_DSN")); dsn != "" {
		return dsn, nil
	}

	user := strings.TrimSpace(os.Getenv("MYSQL_USER"))
	db := strings.TrimSpace(os.Getenv("MYSQL_DATABASE"))
	if user == "" || db == "" {
		return "", fmt.Errorf("MYSQL_DSN or MYSQL_USER and MYSQL_DATABASE must be set")
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = defaultMySQLAddr
	if host := strings.TrimSpace(os.Getenv("MYSQL_HOST")); host != "" {
		cfg.Addr = host
	}
	cfg.User = user
	cfg.Passwd = os.Getenv("MYSQL_PASSWORD")
	cfg.DBName = db
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}
