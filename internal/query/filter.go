package query

import (
	"strings"

	"github.com/zulandar/multidb/internal/models"
	"github.com/zulandar/multidb/internal/result"
)

// Blocked statements are matched as substrings of the trimmed, upper-cased
// query text. This catches the obvious administrative commands; it is not an
// isolation boundary.
var blockedCommon = []string{
	"DROP DATABASE",
	"DROP SCHEMA",
	"CREATE DATABASE",
	"CREATE SCHEMA",
	"ALTER DATABASE",
	"ALTER SCHEMA",
	"USE ",
	"SHOW DATABASES",
}

var blockedByEngine = map[models.EngineType][]string{
	models.EngineMongoDB: {
		"DROPDATABASE",
		"LISTDATABASES",
		"CREATEUSER",
		"DROPUSER",
		"GRANTROLESTOUSER",
	},
	models.EngineRedis: {
		"FLUSHALL",
		"FLUSHDB",
		"CONFIG ",
		"ACL ",
		"KEYS ",
		"SHUTDOWN",
	},
}

// Dangerous reports whether q contains an administrative statement that
// tenants may not run on et.
func Dangerous(q string, et models.EngineType) bool {
	norm := strings.ToUpper(strings.TrimSpace(q))
	for _, p := range blockedCommon {
		if strings.Contains(norm, p) {
			return true
		}
	}
	for _, p := range blockedByEngine[et] {
		if strings.Contains(norm, p) {
			return true
		}
	}
	return false
}

// leadingKeyword returns the first whitespace-delimited word of q, upper-cased.
func leadingKeyword(q string) string {
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// IsRead reports whether a relational statement takes the read path.
func IsRead(q string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(q)), "SELECT")
}

// Classify tags a relational write statement by its leading keyword.
func Classify(q string) string {
	switch leadingKeyword(q) {
	case "INSERT":
		return result.TypeInsert
	case "UPDATE":
		return result.TypeUpdate
	case "DELETE":
		return result.TypeDelete
	case "CREATE":
		return result.TypeCreate
	case "ALTER":
		return result.TypeAlter
	default:
		return result.TypeOther
	}
}
