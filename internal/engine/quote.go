package engine

import (
	"strings"

	"github.com/jackc/pgx/v5"
)

func quoteMySQLIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func quoteMySQLString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quotePostgresIdent(s string) string {
	return pgx.Identifier{s}.Sanitize()
}

func quotePostgresString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteSQLServerIdent(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}

func quoteSQLServerString(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}
