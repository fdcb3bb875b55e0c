package models

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestInstance_Fields(t *testing.T) {
	typ := reflect.TypeOf(Instance{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "autoIncrement")
	assertGormTag(t, typ, "Name", "not null")
	// Database name is unique per engine, not globally.
	assertGormTag(t, typ, "EngineType", "uniqueIndex:idx_instance_db_engine")
	assertGormTag(t, typ, "DatabaseName", "uniqueIndex:idx_instance_db_engine")
	assertGormTag(t, typ, "Status", "default:creating")
	assertGormTag(t, typ, "Status", "index")
	assertGormTag(t, typ, "Host", "default:localhost")
	assertGormTag(t, typ, "UserID", "index")
	assertGormTag(t, typ, "CredentialID", "uniqueIndex")

	assertFieldType(t, typ, "ID", "uint")
	assertFieldType(t, typ, "EngineType", "models.EngineType")
	assertFieldType(t, typ, "Status", "models.InstanceStatus")
	assertFieldType(t, typ, "CredentialID", "*uint")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
	assertFieldType(t, typ, "UpdatedAt", "time.Time")
	assertFieldType(t, typ, "LastAccessedAt", "*time.Time")
}

func TestInstance_Relations(t *testing.T) {
	typ := reflect.TypeOf(Instance{})

	assertGormTag(t, typ, "User", "foreignKey:UserID")
	assertGormTag(t, typ, "Credential", "foreignKey:CredentialID")

	assertFieldType(t, typ, "User", "*models.User")
	assertFieldType(t, typ, "Credential", "*models.Credential")
}

func TestCredential_Fields(t *testing.T) {
	typ := reflect.TypeOf(Credential{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "Username", "not null")
	assertGormTag(t, typ, "Password", "not null")
	assertGormTag(t, typ, "Database", "not null")
	assertGormTag(t, typ, "Host", "default:localhost")

	assertFieldType(t, typ, "Port", "int")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
}

func TestUser_Fields(t *testing.T) {
	typ := reflect.TypeOf(User{})

	assertGormTag(t, typ, "UserName", "uniqueIndex")
	assertGormTag(t, typ, "Role", "default:student")
	assertFieldType(t, typ, "ID", "uint")
}

func TestAccessLog_Fields(t *testing.T) {
	typ := reflect.TypeOf(AccessLog{})

	assertGormTag(t, typ, "InstanceID", "index")
	assertGormTag(t, typ, "AccessedAt", "index")
	assertFieldType(t, typ, "Success", "bool")
	assertFieldType(t, typ, "AccessedAt", "time.Time")
}

func TestParseEngineType(t *testing.T) {
	tests := []struct {
		in      string
		want    EngineType
		wantErr bool
	}{
		{"mysql", EngineMySQL, false},
		{"MySQL", EngineMySQL, false},
		{" postgresql ", EnginePostgreSQL, false},
		{"postgres", EnginePostgreSQL, false},
		{"mongodb", EngineMongoDB, false},
		{"mongo", EngineMongoDB, false},
		{"redis", EngineRedis, false},
		{"sqlserver", EngineSQLServer, false},
		{"mssql", EngineSQLServer, false},
		{"1", EngineMySQL, false},
		{"5", EngineSQLServer, false},
		{"oracle", "", true},
		{"", "", true},
		{"6", "", true},
	}
	for _, tt := range tests {
		got, err := ParseEngineType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEngineType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEngineType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEngineType_DefaultPort(t *testing.T) {
	tests := []struct {
		et   EngineType
		want int
	}{
		{EngineMySQL, 3306},
		{EnginePostgreSQL, 5432},
		{EngineMongoDB, 27017},
		{EngineRedis, 6379},
		{EngineSQLServer, 1433},
		{EngineType("db2"), 0},
	}
	for _, tt := range tests {
		if got := tt.et.DefaultPort(); got != tt.want {
			t.Errorf("%s.DefaultPort() = %d, want %d", tt.et, got, tt.want)
		}
	}
}

func TestEngineType_Relational(t *testing.T) {
	relational := map[EngineType]bool{
		EngineMySQL:      true,
		EnginePostgreSQL: true,
		EngineSQLServer:  true,
		EngineMongoDB:    false,
		EngineRedis:      false,
	}
	for et, want := range relational {
		if got := et.Relational(); got != want {
			t.Errorf("%s.Relational() = %v, want %v", et, got, want)
		}
	}
}

func TestAllEngineTypes_Count(t *testing.T) {
	if len(AllEngineTypes) != 5 {
		t.Errorf("len(AllEngineTypes) = %d, want 5", len(AllEngineTypes))
	}
	for _, et := range AllEngineTypes {
		if !et.Valid() {
			t.Errorf("%s.Valid() = false", et)
		}
	}
}

func TestInstanceStatus_Valid(t *testing.T) {
	for _, s := range ValidStatuses {
		if !s.Valid() {
			t.Errorf("%s.Valid() = false, want true", s)
		}
	}
	if InstanceStatus("paused").Valid() {
		t.Error("paused.Valid() = true, want false")
	}
}

func TestInstance_Instantiation(t *testing.T) {
	credID := uint(3)
	now := time.Now()
	inst := Instance{
		ID:             7,
		Name:           "training-db",
		EngineType:     EngineMySQL,
		Status:         StatusActive,
		DatabaseName:   "alice_mysql_0a1b2c3d",
		Host:           "localhost",
		Port:           3306,
		UserID:         42,
		CredentialID:   &credID,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: &now,
	}
	if *inst.CredentialID != 3 {
		t.Errorf("CredentialID = %d, want 3", *inst.CredentialID)
	}
	if inst.Status != StatusActive {
		t.Errorf("Status = %q, want %q", inst.Status, StatusActive)
	}
}
