package instance

import (
	"time"

	"github.com/zulandar/multidb/internal/dsn"
	"github.com/zulandar/multidb/internal/logging"
	"github.com/zulandar/multidb/internal/models"
)

// Response is an instance with its owner and, when present, its credential.
type Response struct {
	ID             uint                  `json:"id"`
	Name           string                `json:"name"`
	EngineType     models.EngineType     `json:"engineType"`
	Status         models.InstanceStatus `json:"status"`
	DatabaseName   string                `json:"databaseName"`
	Host           string                `json:"host"`
	Port           int                   `json:"port"`
	CreatedAt      time.Time             `json:"createdAt"`
	LastAccessedAt *time.Time            `json:"lastAccessedAt,omitempty"`
	UserID         uint                  `json:"userId"`
	UserName       string                `json:"userName"`
	UserEmail      string                `json:"userEmail"`
	Credentials    *CredentialView       `json:"credentials,omitempty"`
}

// CredentialView is a credential with a ready-to-use connection string.
type CredentialView struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	Database         string `json:"database"`
	Host             string `json:"host"`
	Port             int    `json:"port"`
	ConnectionString string `json:"connectionString"`
}

func toCredentialView(et models.EngineType, c *models.Credential) *CredentialView {
	conn, err := dsn.Build(et, c.Host, c.Port, c.Database, c.Username, c.Password)
	if err != nil {
		logging.Printf("instance: build connection string for %s: %v", c.Database, err)
	}
	return &CredentialView{
		Username:         c.Username,
		Password:         c.Password,
		Database:         c.Database,
		Host:             c.Host,
		Port:             c.Port,
		ConnectionString: conn,
	}
}

func toResponse(inst *models.Instance) *Response {
	r := &Response{
		ID:             inst.ID,
		Name:           inst.Name,
		EngineType:     inst.EngineType,
		Status:         inst.Status,
		DatabaseName:   inst.DatabaseName,
		Host:           inst.Host,
		Port:           inst.Port,
		CreatedAt:      inst.CreatedAt,
		LastAccessedAt: inst.LastAccessedAt,
		UserID:         inst.UserID,
	}
	if inst.User != nil {
		r.UserName = inst.User.UserName
		r.UserEmail = inst.User.Email
	}
	if inst.Credential != nil {
		r.Credentials = toCredentialView(inst.EngineType, inst.Credential)
	}
	return r
}

func toResponses(instances []models.Instance, err error) ([]Response, error) {
	if err != nil {
		return nil, err
	}
	out := make([]Response, 0, len(instances))
	for i := range instances {
		out = append(out, *toResponse(&instances[i]))
	}
	return out, nil
}
