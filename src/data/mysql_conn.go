package data

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stake-plus/guildpanel/src/types"
)

// ConnectMySQL opens a gorm DB with sane defaults. Query warnings go to log.
func ConnectMySQL(dsn string, log logrus.FieldLogger) (*gorm.DB, error) {
	dsn = ensureParam(dsn, "parseTime", "true")
	if !strings.Contains(dsn, "charset=") {
		dsn = ensureParam(dsn, "charset", "utf8mb4")
		dsn = ensureParam(dsn, "collation", "utf8mb4_unicode_ci")
	}

	return gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: GormLogger(log)})
}

// GormLogger adapts a logrus logger for gorm.
func GormLogger(log logrus.FieldLogger) logger.Interface {
	return logger.New(
		log.WithField("component", "gorm"),
		logger.Config{SlowThreshold: time.Second, LogLevel: logger.Warn, IgnoreRecordNotFoundError: true, Colorful: false},
	)
}

// Migrate creates or updates the tables used by the panel and the bot.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(types.AllModels...)
}

func ensureParam(dsn, key, val string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + val
}
