package models

import (
	"fmt"
	"strings"
)

// EngineType identifies one of the supported database engine families.
type EngineType string

const (
	EngineMySQL      EngineType = "mysql"
	EnginePostgreSQL EngineType = "postgresql"
	EngineMongoDB    EngineType = "mongodb"
	EngineRedis      EngineType = "redis"
	EngineSQLServer  EngineType = "sqlserver"
)

// AllEngineTypes lists every supported engine in its canonical order.
var AllEngineTypes = []EngineType{
	EngineMySQL,
	EnginePostgreSQL,
	EngineMongoDB,
	EngineRedis,
	EngineSQLServer,
}

// engineCodes maps the numeric codes used by older API clients.
var engineCodes = map[string]EngineType{
	"1": EngineMySQL,
	"2": EnginePostgreSQL,
	"3": EngineMongoDB,
	"4": EngineRedis,
	"5": EngineSQLServer,
}

// ParseEngineType accepts an engine name (case-insensitive, "postgres" and
// "mssql" aliases allowed) or its numeric code.
func ParseEngineType(s string) (EngineType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if et, ok := engineCodes[v]; ok {
		return et, nil
	}
	switch v {
	case "postgres":
		return EnginePostgreSQL, nil
	case "mssql":
		return EngineSQLServer, nil
	case "mongo":
		return EngineMongoDB, nil
	}
	et := EngineType(v)
	if !et.Valid() {
		return "", fmt.Errorf("models: unknown engine type %q", s)
	}
	return et, nil
}

// Valid reports whether e is one of the supported engines.
func (e EngineType) Valid() bool {
	for _, et := range AllEngineTypes {
		if et == e {
			return true
		}
	}
	return false
}

// DefaultPort returns the engine's well-known port, or 0 for unknown engines.
func (e EngineType) DefaultPort() int {
	switch e {
	case EngineMySQL:
		return 3306
	case EnginePostgreSQL:
		return 5432
	case EngineMongoDB:
		return 27017
	case EngineRedis:
		return 6379
	case EngineSQLServer:
		return 1433
	}
	return 0
}

// Relational reports whether the engine speaks SQL.
func (e EngineType) Relational() bool {
	return e == EngineMySQL || e == EnginePostgreSQL || e == EngineSQLServer
}

func (e EngineType) String() string { return string(e) }
