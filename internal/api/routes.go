package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fairhaven/upkeep/internal/maintenance"
	"github.com/fairhaven/upkeep/internal/metrics"
	"github.com/fairhaven/upkeep/internal/models"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, store *maintenance.Service, rec *metrics.Recorder) {
	r := router.Group("/maintenance", identityRequired())

	r.GET("", handleList(store))
	r.POST("", handleCreate(store))

	r.GET("/:id", handleGet(store))
	r.PATCH("/:id/status", managerOnly(), handleUpdateStatus(store))
	r.PUT("/:id/status", managerOnly(), handleUpdateStatus(store))
	r.PATCH("/:id/assign", managerOnly(), handleAssign(store))
	r.POST("/:id/notes", handleAddNote(store))

	r.GET("/technicians", handleListTechnicians(store))
	r.POST("/technicians", managerOnly(), handleCreateTechnician(store))

	r.GET("/assets", handleListAssets(store))
	r.POST("/assets", managerOnly(), handleCreateAsset(store))

	r.GET("/sla-policies", managerOnly(), handleListSlaPolicies(store))

	r.GET("/metrics/ai", managerOnly(), handleMetrics(rec))
}

// identity is the caller identity forwarded by the auth gateway.
type identity struct {
	UserID uint
	Role   models.Role
}

const identityKey = "identity"

// identityRequired reads the gateway identity headers and rejects
// requests without them.
func identityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.GetHeader("X-User-ID"), 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid X-User-ID header"})
			return
		}
		role := models.Role(c.GetHeader("X-User-Role"))
		if role != models.RoleTenant && role != models.RolePropertyManager {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid X-User-Role header"})
			return
		}
		c.Set(identityKey, identity{UserID: uint(id), Role: role})
		c.Next()
	}
}

func managerOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if caller(c).Role != models.RolePropertyManager {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "property manager role required"})
			return
		}
		c.Next()
	}
}

func caller(c *gin.Context) identity {
	id, _ := c.MustGet(identityKey).(identity)
	return id
}

// writeError maps store errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	var notFound *maintenance.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
		return
	}
	var invalid *maintenance.ValidationError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return 0, false
	}
	return uint(id), true
}

// queryUint parses an optional numeric query parameter. Malformed
// values are rejected, not ignored.
func queryUint(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " supplied"})
		return nil, false
	}
	u := uint(v)
	return &u, true
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " supplied"})
		return 0, false
	}
	return v, true
}

func handleList(store *maintenance.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := caller(c)

		// Tenants only ever see their own requests.
		if id.Role != models.RolePropertyManager {
			requests, err := store.FindAllForUser(c.Request.Context(), id.UserID)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"data": requests})
			return
		}

		var filters maintenance.ListFilters
		if raw := c.Query("status"); raw != "" {
			status, err := maintenance.ParseStatus(raw)
			if err != nil {
				writeError(c, err)
				return
			}
			filters.Status = status
		}
		if raw := c.Query("priority"); raw != "" {
			priority, err := maintenance.ParsePriority(raw)
			if err != nil {
				writeError(c, err)
				return
			}
			filters.Priority = priority
		}
		var ok bool
		if filters.PropertyID, ok = queryUint(c, "propertyId"); !ok {
			return
		}
		if filters.UnitID, ok = queryUint(c, "unitId"); !ok {
			return
		}
		if filters.AssigneeID, ok = queryUint(c, "assigneeId"); !ok {
			return
		}
		if filters.Page, ok = queryInt(c, "page"); !ok {
			return
		}
		if filters.PageSize, ok = queryInt(c, "pageSize"); !ok {
			return
		}

		requests, err := store.FindAll(c.Request.Context(), filters)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": requests})
	}
}

func handleCreate(store *maintenance.Service) gin.HandlerFunc {
	type body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		PropertyID  *uint  `json:"propertyId"`
		UnitID      *uint  `json:"unitId"`
		AssetID     *uint  `json:"assetId"`
	}
	return func(c *gin.Context) {
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		req, err := store.Create(c.Request.Context(), caller(c).UserID, maintenance.CreateOpts{
			Title:       b.Title,
			Description: b.Description,
			Priority:    b.Priority,
			PropertyID:  b.PropertyID,
			UnitID:      b.UnitID,
			AssetID:     b.AssetID,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": req})
	}
}

func handleGet(store *maintenance.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		req, err := store.FindByID(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		// Tenants may only view their own requests.
		caller := caller(c)
		if caller.Role != models.RolePropertyManager && req.AuthorID != caller.UserID {
			c.JSON(http.StatusNotFound, gin.H{"error": "maintenance request not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": req})
	}
}

func handleUpdateStatus(store *maintenance.Service) gin.HandlerFunc {
	type body struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		status, err := maintenance.ParseStatus(b.Status)
		if err != nil {
			writeError(c, err)
			return
		}
		req, err := store.UpdateStatus(c.Request.Context(), id, maintenance.UpdateStatusOpts{
			Status: status,
			Note:   b.Note,
		}, caller(c).UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": req})
	}
}

func handleAssign(store *maintenance.Service) gin.HandlerFunc {
	type body struct {
		TechnicianID *uint `json:"technicianId"`
	}
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		req, err := store.AssignTechnician(c.Request.Context(), id, maintenance.AssignOpts{
			TechnicianID: b.TechnicianID,
		}, caller(c).UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": req})
	}
}

func handleAddNote(store *maintenance.Service) gin.HandlerFunc {
	type body struct {
		Body string `json:"body"`
	}
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		note, err := store.AddNote(c.Request.Context(), id, b.Body, caller(c).UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": note})
	}
}

func handleListTechnicians(store *maintenance.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		technicians, err := store.ListTechnicians(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": technicians})
	}
}

func handleCreateTechnician(store *maintenance.Service) gin.HandlerFunc {
	type body struct {
		Name   string `json:"name"`
		Phone  string `json:"phone"`
		Email  string `json:"email"`
		Role   string `json:"role"`
		UserID *uint  `json:"userId"`
	}
	return func(c *gin.Context) {
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		tech, err := store.CreateTechnician(c.Request.Context(), maintenance.TechnicianOpts{
			Name:   b.Name,
			Phone:  b.Phone,
			Email:  b.Email,
			Role:   b.Role,
			UserID: b.UserID,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": tech})
	}
}

func handleListAssets(store *maintenance.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		propertyID, ok := queryUint(c, "propertyId")
		if !ok {
			return
		}
		unitID, ok := queryUint(c, "unitId")
		if !ok {
			return
		}
		assets, err := store.ListAssets(c.Request.Context(), propertyID, unitID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": assets})
	}
}

func handleCreateAsset(store *maintenance.Service) gin.HandlerFunc {
	type body struct {
		PropertyID   uint   `json:"propertyId"`
		UnitID       *uint  `json:"unitId"`
		Name         string `json:"name"`
		Category     string `json:"category"`
		Manufacturer string `json:"manufacturer"`
		Model        string `json:"model"`
		SerialNumber string `json:"serialNumber"`
		InstallDate  string `json:"installDate"`
	}
	return func(c *gin.Context) {
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		asset, err := store.CreateAsset(c.Request.Context(), maintenance.AssetOpts{
			PropertyID:   b.PropertyID,
			UnitID:       b.UnitID,
			Name:         b.Name,
			Category:     b.Category,
			Manufacturer: b.Manufacturer,
			Model:        b.Model,
			SerialNumber: b.SerialNumber,
			InstallDate:  b.InstallDate,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": asset})
	}
}

func handleListSlaPolicies(store *maintenance.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		propertyID, ok := queryUint(c, "propertyId")
		if !ok {
			return
		}
		policies, err := store.ListSlaPolicies(c.Request.Context(), propertyID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": policies})
	}
}

func handleMetrics(rec *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rec == nil {
			c.JSON(http.StatusOK, gin.H{"data": metrics.Snapshot{}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rec.Snapshot()})
	}
}
