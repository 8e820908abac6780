package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/service"
)

type mockLocationReader struct {
	getLatestFn    func(ctx context.Context, assetID string) (*domain.EstimatedLocation, error)
	getHistoryFn   func(ctx context.Context, query *domain.HistoryQuery) ([]domain.EstimatedLocation, error)
	getAllAssetsFn func(ctx context.Context) ([]domain.Asset, error)
}

func (m *mockLocationReader) GetLatest(ctx context.Context, assetID string) (*domain.EstimatedLocation, error) {
	return m.getLatestFn(ctx, assetID)
}

func (m *mockLocationReader) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.EstimatedLocation, error) {
	return m.getHistoryFn(ctx, query)
}

func (m *mockLocationReader) GetAllAssets(ctx context.Context) ([]domain.Asset, error) {
	return m.getAllAssetsFn(ctx)
}

type mockAnomalyChecker struct {
	forceCheckFn func(ctx context.Context, assetID string) (*domain.Alert, error)
}

func (m *mockAnomalyChecker) ForceCheck(ctx context.Context, assetID string) (*domain.Alert, error) {
	return m.forceCheckFn(ctx, assetID)
}

type mockGeofenceRefresher struct {
	refreshFn func(ctx context.Context) error
}

func (m *mockGeofenceRefresher) Refresh(ctx context.Context) error {
	return m.refreshFn(ctx)
}

func setupRouter(locations locationReader, anomalies anomalyChecker, geofences geofenceRefresher, rules rulesManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAssetHandler(locations, anomalies, geofences, rules)
	h.Register(r.Group(""))
	return r
}

func TestGetLatestLocation_Success(t *testing.T) {
	ts := time.Unix(1715003456, 0)
	locations := &mockLocationReader{
		getLatestFn: func(_ context.Context, assetID string) (*domain.EstimatedLocation, error) {
			if assetID != "AT-001" {
				t.Fatalf("unexpected assetID: %s", assetID)
			}
			return &domain.EstimatedLocation{
				AssetID:           "AT-001",
				Lat:               10.001,
				Lon:               20.0005,
				UncertaintyRadius: 42.5,
				Confidence:        80,
				Algorithm:         domain.AlgorithmTrilateration,
				GatewayCount:      3,
				Timestamp:         ts,
			}, nil
		},
	}

	r := setupRouter(locations, nil, nil, service.NewAlertRulesEngine())
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/assets/AT-001/location", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp domain.EstimatedLocation
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.AssetID != "AT-001" {
		t.Errorf("expected AT-001, got %s", resp.AssetID)
	}
	if resp.Algorithm != domain.AlgorithmTrilateration {
		t.Errorf("expected trilateration, got %s", resp.Algorithm)
	}
}

func TestGetLatestLocation_NotFound(t *testing.T) {
	locations := &mockLocationReader{
		getLatestFn: func(_ context.Context, _ string) (*domain.EstimatedLocation, error) {
			return nil, errors.New("no rows")
		},
	}

	r := setupRouter(locations, nil, nil, service.NewAlertRulesEngine())
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/assets/missing/location", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetHistory_InvalidParams(t *testing.T) {
	r := setupRouter(&mockLocationReader{}, nil, nil, service.NewAlertRulesEngine())
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/assets/AT-001/history?start=abc&end=123", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetHistory_Success(t *testing.T) {
	locations := &mockLocationReader{
		getHistoryFn: func(_ context.Context, query *domain.HistoryQuery) ([]domain.EstimatedLocation, error) {
			if query.AssetID != "AT-001" {
				t.Fatalf("unexpected assetID: %s", query.AssetID)
			}
			return []domain.EstimatedLocation{
				{AssetID: "AT-001", Algorithm: domain.AlgorithmMidpoint},
				{AssetID: "AT-001", Algorithm: domain.AlgorithmTrilateration},
			}, nil
		},
	}

	r := setupRouter(locations, nil, nil, service.NewAlertRulesEngine())
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/assets/AT-001/history?start=1715000000&end=1715100000", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp []domain.EstimatedLocation
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("expected 2 locations, got %d", len(resp))
	}
}

func TestGetAllAssets_Success(t *testing.T) {
	locations := &mockLocationReader{
		getAllAssetsFn: func(_ context.Context) ([]domain.Asset, error) {
			return []domain.Asset{{AssetID: "AT-001"}, {AssetID: "AT-002"}}, nil
		},
	}

	r := setupRouter(locations, nil, nil, service.NewAlertRulesEngine())
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/assets", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestForceAnomalyCheck(t *testing.T) {
	anomalies := &mockAnomalyChecker{
		forceCheckFn: func(_ context.Context, assetID string) (*domain.Alert, error) {
			return domain.NewAlert(domain.AlertAnomaly, domain.SeverityCritical, assetID, "anomaly"), nil
		},
	}

	r := setupRouter(&mockLocationReader{}, anomalies, nil, service.NewAlertRulesEngine())
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/assets/AT-001/anomaly-check", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Anomalous bool `json:"anomalous"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Anomalous {
		t.Error("expected anomalous=true")
	}
}

func TestForceAnomalyCheck_Clean(t *testing.T) {
	anomalies := &mockAnomalyChecker{
		forceCheckFn: func(_ context.Context, _ string) (*domain.Alert, error) {
			return nil, nil
		},
	}

	r := setupRouter(&mockLocationReader{}, anomalies, nil, service.NewAlertRulesEngine())
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/assets/AT-001/anomaly-check", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Anomalous bool `json:"anomalous"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Anomalous {
		t.Error("expected anomalous=false")
	}
}

func TestRefreshGeofences_Failure(t *testing.T) {
	geofences := &mockGeofenceRefresher{
		refreshFn: func(_ context.Context) error {
			return errors.New("postgres down")
		},
	}

	r := setupRouter(&mockLocationReader{}, nil, geofences, service.NewAlertRulesEngine())
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/geofences/refresh", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestRuleEndpoints(t *testing.T) {
	engine := service.NewAlertRulesEngine()
	r := setupRouter(&mockLocationReader{}, nil, nil, engine)

	// list
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/rules", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var rules []ruleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &rules); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rules) == 0 {
		t.Fatal("expected default rules")
	}

	// disable one
	body, _ := json.Marshal(map[string]interface{}{"enabled": false, "cooldown_minutes": 60})
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("PUT", "/rules/battery_low", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", w.Code)
	}
	rule, _ := engine.GetRule("battery_low")
	if rule.Enabled {
		t.Error("rule should be disabled")
	}
	if rule.Cooldown != time.Hour {
		t.Errorf("expected 1h cooldown, got %v", rule.Cooldown)
	}

	// delete
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/rules/battery_low", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if _, ok := engine.GetRule("battery_low"); ok {
		t.Error("rule should be removed")
	}

	// unknown rule
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/rules/battery_low", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
