package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/service"
)

type locationReader interface {
	GetLatest(ctx context.Context, assetID string) (*domain.EstimatedLocation, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.EstimatedLocation, error)
	GetAllAssets(ctx context.Context) ([]domain.Asset, error)
}

type anomalyChecker interface {
	ForceCheck(ctx context.Context, assetID string) (*domain.Alert, error)
}

type geofenceRefresher interface {
	Refresh(ctx context.Context) error
}

type rulesManager interface {
	Rules() []*service.AlertRule
	GetRule(id string) (*service.AlertRule, bool)
	UpdateRule(id string, enabled bool, severity domain.AlertSeverity, cooldown time.Duration) error
	RemoveRule(id string) error
}

type AssetHandler struct {
	locations locationReader
	anomalies anomalyChecker
	geofences geofenceRefresher
	rules     rulesManager
}

func NewAssetHandler(locations locationReader, anomalies anomalyChecker, geofences geofenceRefresher, rules rulesManager) *AssetHandler {
	return &AssetHandler{
		locations: locations,
		anomalies: anomalies,
		geofences: geofences,
		rules:     rules,
	}
}

func (h *AssetHandler) Register(r *gin.RouterGroup) {
	r.GET("/assets", h.GetAllAssets)
	r.GET("/assets/:asset_id/location", h.GetLatestLocation)
	r.GET("/assets/:asset_id/history", h.GetHistory)
	r.POST("/assets/:asset_id/anomaly-check", h.ForceAnomalyCheck)
	r.POST("/geofences/refresh", h.RefreshGeofences)
	r.GET("/rules", h.ListRules)
	r.PUT("/rules/:rule_id", h.UpdateRule)
	r.DELETE("/rules/:rule_id", h.DeleteRule)
}

func (h *AssetHandler) GetAllAssets(c *gin.Context) {
	assets, err := h.locations.GetAllAssets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch assets"})
		return
	}

	c.JSON(http.StatusOK, assets)
}

func (h *AssetHandler) GetLatestLocation(c *gin.Context) {
	assetID := c.Param("asset_id")

	loc, err := h.locations.GetLatest(c.Request.Context(), assetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
		return
	}

	c.JSON(http.StatusOK, loc)
}

func (h *AssetHandler) GetHistory(c *gin.Context) {
	assetID := c.Param("asset_id")

	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}

	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}

	query := &domain.HistoryQuery{
		AssetID: assetID,
		Start:   time.Unix(start, 0),
		End:     time.Unix(end, 0),
	}

	locations, err := h.locations.GetHistory(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, locations)
}

func (h *AssetHandler) ForceAnomalyCheck(c *gin.Context) {
	assetID := c.Param("asset_id")

	alert, err := h.anomalies.ForceCheck(c.Request.Context(), assetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "anomaly check failed"})
		return
	}
	if alert == nil {
		c.JSON(http.StatusOK, gin.H{"asset_id": assetID, "anomalous": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset_id": assetID, "anomalous": true, "alert": alert})
}

func (h *AssetHandler) RefreshGeofences(c *gin.Context) {
	if err := h.geofences.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "geofence refresh failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

type ruleResponse struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	Severity        string  `json:"severity"`
	CooldownMinutes float64 `json:"cooldown_minutes"`
	Enabled         bool    `json:"enabled"`
	Description     string  `json:"description,omitempty"`
}

func toRuleResponse(r *service.AlertRule) ruleResponse {
	return ruleResponse{
		ID:              r.ID,
		Type:            string(r.Type),
		Severity:        string(r.Severity),
		CooldownMinutes: r.Cooldown.Minutes(),
		Enabled:         r.Enabled,
		Description:     r.Description,
	}
}

func (h *AssetHandler) ListRules(c *gin.Context) {
	rules := h.rules.Rules()
	results := make([]ruleResponse, len(rules))
	for i, r := range rules {
		results[i] = toRuleResponse(r)
	}

	c.JSON(http.StatusOK, results)
}

type ruleUpdateRequest struct {
	Enabled         *bool   `json:"enabled"`
	Severity        string  `json:"severity"`
	CooldownMinutes float64 `json:"cooldown_minutes"`
}

func (h *AssetHandler) UpdateRule(c *gin.Context) {
	ruleID := c.Param("rule_id")

	var req ruleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	current, ok := h.rules.GetRule(ruleID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}

	enabled := current.Enabled
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	cooldown := time.Duration(req.CooldownMinutes * float64(time.Minute))
	if err := h.rules.UpdateRule(ruleID, enabled, domain.AlertSeverity(req.Severity), cooldown); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}

	updated, _ := h.rules.GetRule(ruleID)
	c.JSON(http.StatusOK, toRuleResponse(updated))
}

func (h *AssetHandler) DeleteRule(c *gin.Context) {
	if err := h.rules.RemoveRule(c.Param("rule_id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
