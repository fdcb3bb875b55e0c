package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/multidb/internal/instance"
	"github.com/zulandar/multidb/internal/models"
	"github.com/zulandar/multidb/internal/query"
)

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	authed := router.Group("/api", authenticate(opts.Auth))
	admin := requireAdmin()

	// Instances.
	inst := authed.Group("/instances")
	inst.POST("", admin, handleCreate(opts.Instances))
	inst.GET("", admin, handleList(opts.Instances))
	inst.GET("/mine", handleListMine(opts.Instances))
	inst.GET("/engine/:engine", admin, handleListByEngine(opts.Instances))
	inst.GET("/:id", handleGet(opts.Instances))
	inst.GET("/:id/credentials", handleCredentials(opts.Instances))
	inst.PATCH("/:id/status", admin, handleUpdateStatus(opts.Instances))
	inst.POST("/:id/assign", admin, handleAssign(opts.Instances))
	inst.DELETE("/:id", admin, handleDelete(opts.Instances))

	// Queries.
	authed.POST("/query", handleExecute(opts.Queries))
	authed.GET("/query/validate/:id", handleValidate(opts.Queries))

	// Engine masters.
	eng := authed.Group("/engines", admin)
	eng.GET("/health", handleHealth(opts.Engines))
	eng.GET("/:engine/databases", handleListDatabases(opts.Engines))
	eng.GET("/:engine/databases/:name/exists", handleDatabaseExists(opts.Engines))
}

// engineParam accepts an engine as a name or a numeric code.
type engineParam models.EngineType

func (e *engineParam) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	et, err := models.ParseEngineType(raw)
	if err != nil {
		return err
	}
	*e = engineParam(et)
	return nil
}

type createBody struct {
	Name       string      `json:"name"`
	EngineType engineParam `json:"engineType"`
	UserID     uint        `json:"userId"`
}

type statusBody struct {
	Status models.InstanceStatus `json:"status"`
}

type assignBody struct {
	UserID uint `json:"userId"`
}

// idParam parses the :id path parameter, writing a 400 on failure.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid id "+strconv.Quote(c.Param("id")))
		return 0, false
	}
	return uint(id), true
}

// engineFromPath parses the :engine path parameter, writing a 400 on failure.
func engineFromPath(c *gin.Context) (models.EngineType, bool) {
	et, err := models.ParseEngineType(c.Param("engine"))
	if err != nil {
		badRequest(c, "unknown engine "+strconv.Quote(c.Param("engine")))
		return "", false
	}
	return et, true
}

func handleCreate(svc Instances) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body createBody
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		resp, err := svc.Create(c.Request.Context(), instance.CreateRequest{
			Name:       body.Name,
			EngineType: models.EngineType(body.EngineType),
			OwnerID:    body.UserID,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("Location", "/api/instances/"+strconv.FormatUint(uint64(resp.ID), 10))
		c.JSON(http.StatusCreated, resp)
	}
}

func handleList(svc Instances) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleListMine(svc Instances) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.ListByOwner(c.Request.Context(), identityFrom(c).UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleListByEngine(svc Instances) gin.HandlerFunc {
	return func(c *gin.Context) {
		et, ok := engineFromPath(c)
		if !ok {
			return
		}
		out, err := svc.ListByEngine(c.Request.Context(), et)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleGet(svc Instances) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		who := identityFrom(c)
		resp, err := svc.Get(c.Request.Context(), id, who.UserID, who.IsAdmin())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func handleCredentials(svc Instances) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		cred, err := svc.GetCredentials(c.Request.Context(), id, identityFrom(c).UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cred)
	}
}

func handleUpdateStatus(svc Instances) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var body statusBody
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		if err := svc.UpdateStatus(c.Request.Context(), id, body.Status); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "status updated"})
	}
}

func handleAssign(svc Instances) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var body assignBody
		if err := c.ShouldBindJSON(&body); err != nil || body.UserID == 0 {
			badRequest(c, "userId is required")
			return
		}
		if err := svc.AssignToOwner(c.Request.Context(), id, body.UserID); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "instance assigned"})
	}
}

func handleDelete(svc Instances) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "instance deleted"})
	}
}

func handleExecute(q Queries) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req query.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
		if req.InstanceID == 0 {
			badRequest(c, "instanceId is required")
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			badRequest(c, "query must not be empty")
			return
		}
		c.JSON(http.StatusOK, q.Execute(c.Request.Context(), req, identityFrom(c).UserID))
	}
}

func handleValidate(q Queries) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"hasAccess": q.ValidateAccess(c.Request.Context(), id, identityFrom(c).UserID)})
	}
}

func handleHealth(e Engines) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, e.HealthCheckAll(c.Request.Context()))
	}
}

func handleListDatabases(e Engines) gin.HandlerFunc {
	return func(c *gin.Context) {
		et, ok := engineFromPath(c)
		if !ok {
			return
		}
		d, ok := e.Lookup(et)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "engine " + string(et) + " is not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"engine": et, "databases": d.ListDatabases(c.Request.Context())})
	}
}

func handleDatabaseExists(e Engines) gin.HandlerFunc {
	return func(c *gin.Context) {
		et, ok := engineFromPath(c)
		if !ok {
			return
		}
		d, ok := e.Lookup(et)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "engine " + string(et) + " is not configured"})
			return
		}
		name := c.Param("name")
		c.JSON(http.StatusOK, gin.H{
			"engine":       et,
			"databaseName": name,
			"exists":       d.DatabaseExists(c.Request.Context(), name),
		})
	}
}
