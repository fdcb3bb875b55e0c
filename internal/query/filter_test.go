package query

import (
	"testing"

	"github.com/zulandar/multidb/internal/models"
	"github.com/zulandar/multidb/internal/result"
)

func TestDangerous(t *testing.T) {
	tests := []struct {
		name   string
		engine models.EngineType
		query  string
		want   bool
	}{
		{"drop database", models.EngineMySQL, "DROP DATABASE foo", true},
		{"doubled inner space is not matched", models.EnginePostgreSQL, "DROP  DATABASE x", false},
		{"lowercase", models.EnginePostgreSQL, "  drop database x;", true},
		{"drop schema", models.EnginePostgreSQL, "DROP SCHEMA public CASCADE", true},
		{"create database", models.EngineSQLServer, "create database other", true},
		{"alter schema", models.EngineMySQL, "ALTER SCHEMA s READ ONLY = 1", true},
		{"use", models.EngineSQLServer, "USE master", true},
		{"show databases", models.EngineMySQL, "show databases", true},
		{"embedded in select", models.EngineMySQL, "SELECT 1; DROP DATABASE x", true},
		{"plain select", models.EngineMySQL, "SELECT * FROM users", false},
		{"drop table", models.EngineMySQL, "DROP TABLE users", false},
		{"mongo dropDatabase", models.EngineMongoDB, `{"dropDatabase": 1}`, true},
		{"mongo createUser", models.EngineMongoDB, `{"createUser": "x", "pwd": "y", "roles": []}`, true},
		{"mongo find", models.EngineMongoDB, `{"find": "users"}`, false},
		{"redis flushall", models.EngineRedis, "flushall", true},
		{"redis config", models.EngineRedis, "CONFIG GET *", true},
		{"redis keys", models.EngineRedis, "keys *", true},
		{"redis select", models.EngineRedis, "SELECT 2", false},
		{"redis get", models.EngineRedis, "GET alice:counter", false},
		{"redis extras only apply to redis", models.EngineMySQL, "FLUSHALL", false},
		{"mongo extras only apply to mongo", models.EngineMySQL, "SELECT createuser FROM t", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dangerous(tt.query, tt.engine); got != tt.want {
				t.Errorf("Dangerous(%q, %s) = %v, want %v", tt.query, tt.engine, got, tt.want)
			}
		})
	}
}

func TestDangerous_PlainSelectAllowedOnEveryEngine(t *testing.T) {
	for _, et := range models.AllEngineTypes {
		if Dangerous("SELECT 1", et) {
			t.Errorf("Dangerous(%q, %s) = true, want false", "SELECT 1", et)
		}
	}
}

func TestIsRead(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT 1", true},
		{"  select * from t", true},
		{"\n\tSelect now()", true},
		{"INSERT INTO t VALUES (1)", false},
		{"WITH x AS (SELECT 1) SELECT * FROM x", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsRead(tt.query); got != tt.want {
			t.Errorf("IsRead(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"INSERT INTO t VALUES (1)", result.TypeInsert},
		{"  update t set a = 1", result.TypeUpdate},
		{"delete from t", result.TypeDelete},
		{"CREATE TABLE t (id int)", result.TypeCreate},
		{"alter table t add column b int", result.TypeAlter},
		{"TRUNCATE t", result.TypeOther},
		{"", result.TypeOther},
	}
	for _, tt := range tests {
		if got := Classify(tt.query); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}
