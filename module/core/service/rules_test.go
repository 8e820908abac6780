package service

import (
	"testing"
	"time"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
)

func floatPtr(v float64) *float64 { return &v }

// a working-hours timestamp so theft detection stays quiet unless a test
// wants it
var workday = time.Date(2026, 5, 6, 10, 0, 0, 0, time.UTC)

func baseSnapshot(assetID string) *domain.AssetSnapshot {
	return &domain.AssetSnapshot{
		AssetID:  assetID,
		LastSeen: workday.Add(-time.Minute),
		MovedAt:  workday.Add(-time.Hour),
		Now:      workday,
	}
}

func findAlert(alerts []*domain.Alert, t domain.AlertType) *domain.Alert {
	for _, a := range alerts {
		if a.Type == t {
			return a
		}
	}
	return nil
}

func TestEvaluate_NoConditionsNoAlerts(t *testing.T) {
	e := NewAlertRulesEngine()
	alerts := e.Evaluate(baseSnapshot("AT-001"))
	if len(alerts) != 0 {
		t.Fatalf("healthy snapshot should produce no alerts, got %d", len(alerts))
	}
}

func TestEvaluate_BatteryLow(t *testing.T) {
	e := NewAlertRulesEngine()
	s := baseSnapshot("AT-001")
	s.BatteryLevel = floatPtr(15)

	alerts := e.Evaluate(s)
	if findAlert(alerts, domain.AlertBatteryLow) == nil {
		t.Error("expected battery_low at 15%")
	}
	if findAlert(alerts, domain.AlertBatteryCritical) != nil {
		t.Error("15% is not critical")
	}
}

func TestEvaluate_BatteryCritical(t *testing.T) {
	e := NewAlertRulesEngine()
	s := baseSnapshot("AT-001")
	s.BatteryLevel = floatPtr(5)

	alerts := e.Evaluate(s)
	if findAlert(alerts, domain.AlertBatteryCritical) == nil {
		t.Error("expected battery_critical at 5%")
	}
	// critical supersedes low; a dying battery raises one alert
	if findAlert(alerts, domain.AlertBatteryLow) != nil {
		t.Error("battery_low should not also fire at 5%")
	}
}

func TestEvaluate_Offline(t *testing.T) {
	e := NewAlertRulesEngine()
	s := baseSnapshot("AT-001")
	s.LastSeen = workday.Add(-45 * time.Minute)

	if findAlert(e.Evaluate(s), domain.AlertOffline) == nil {
		t.Error("expected offline after 45 minutes of silence")
	}
}

func TestEvaluate_ZoneRules(t *testing.T) {
	e := NewAlertRulesEngine()
	s := baseSnapshot("AT-001")
	s.InRestrictedZone = true
	s.ExitedAuthorized = true

	alerts := e.Evaluate(s)
	if findAlert(alerts, domain.AlertUnauthorizedZone) == nil {
		t.Error("expected unauthorized_zone_entry")
	}
	if findAlert(alerts, domain.AlertAuthorizedExit) == nil {
		t.Error("expected authorized_zone_exit")
	}
}

func TestEvaluate_TheftDetection(t *testing.T) {
	e := NewAlertRulesEngine()

	night := time.Date(2026, 5, 6, 2, 0, 0, 0, time.UTC)
	s := baseSnapshot("AT-001")
	s.Now = night
	s.LastSeen = night.Add(-time.Minute)
	s.MovedAt = night.Add(-time.Minute)
	s.MovementMeters = 800

	if findAlert(e.Evaluate(s), domain.AlertTheft) == nil {
		t.Error("expected theft_detection for 800m at 2am")
	}

	// same movement during working hours is fine
	s2 := baseSnapshot("AT-002")
	s2.MovementMeters = 800
	if findAlert(e.Evaluate(s2), domain.AlertTheft) != nil {
		t.Error("movement during working hours is not theft")
	}
}

func TestEvaluate_Underutilization(t *testing.T) {
	e := NewAlertRulesEngine()
	s := baseSnapshot("AT-001")
	s.MovedAt = workday.Add(-25 * time.Hour)

	if findAlert(e.Evaluate(s), domain.AlertUnderutilized) == nil {
		t.Error("expected underutilization after 25 idle hours")
	}
}

func TestEvaluate_MaintenanceOverdue(t *testing.T) {
	e := NewAlertRulesEngine()
	s := baseSnapshot("AT-001")
	due := workday.Add(-48 * time.Hour)
	s.MaintenanceDue = &due

	if findAlert(e.Evaluate(s), domain.AlertMaintenanceDue) == nil {
		t.Error("expected maintenance_overdue")
	}
}

func TestEvaluate_CooldownSuppressesRepeat(t *testing.T) {
	e := NewAlertRulesEngine()

	s := baseSnapshot("AT-001")
	s.BatteryLevel = floatPtr(15)
	if len(e.Evaluate(s)) != 1 {
		t.Fatal("expected first evaluation to alert")
	}

	// ten minutes later, inside the 30 minute cooldown
	s2 := baseSnapshot("AT-001")
	s2.BatteryLevel = floatPtr(14)
	s2.Now = workday.Add(10 * time.Minute)
	if len(e.Evaluate(s2)) != 0 {
		t.Error("repeat within cooldown should be suppressed")
	}

	// past the cooldown; keep LastSeen fresh so offline stays quiet
	s3 := baseSnapshot("AT-001")
	s3.BatteryLevel = floatPtr(14)
	s3.Now = workday.Add(31 * time.Minute)
	s3.LastSeen = s3.Now.Add(-time.Minute)
	alerts := e.Evaluate(s3)
	if findAlert(alerts, domain.AlertBatteryLow) == nil {
		t.Error("alert should fire again after the cooldown")
	}
	if len(alerts) != 1 {
		t.Errorf("expected only battery_low, got %d alerts", len(alerts))
	}
}

func TestEvaluate_CooldownIsPerAssetPerRule(t *testing.T) {
	e := NewAlertRulesEngine()

	s := baseSnapshot("AT-001")
	s.BatteryLevel = floatPtr(15)
	e.Evaluate(s)

	// another asset with the same condition still alerts
	s2 := baseSnapshot("AT-002")
	s2.BatteryLevel = floatPtr(15)
	if len(e.Evaluate(s2)) != 1 {
		t.Error("cooldown must be scoped per asset")
	}

	// same asset, different rule still alerts
	s3 := baseSnapshot("AT-001")
	s3.InRestrictedZone = true
	if findAlert(e.Evaluate(s3), domain.AlertUnauthorizedZone) == nil {
		t.Error("cooldown must be scoped per rule")
	}
}

func TestRuleManagement(t *testing.T) {
	e := NewAlertRulesEngine()

	err := e.AddRule(&AlertRule{
		ID:       "temperature_high",
		Type:     domain.AlertType("temperature_high"),
		Severity: domain.SeverityWarning,
		Condition: func(s *domain.AssetSnapshot) bool {
			return false
		},
	})
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}

	rule, ok := e.GetRule("temperature_high")
	if !ok {
		t.Fatal("rule should be retrievable")
	}
	if rule.Cooldown != defaultRuleCooldown {
		t.Errorf("expected default cooldown, got %v", rule.Cooldown)
	}

	if err := e.AddRule(&AlertRule{ID: "temperature_high", Condition: func(*domain.AssetSnapshot) bool { return false }}); err == nil {
		t.Error("duplicate rule id should be rejected")
	}

	if err := e.UpdateRule("temperature_high", false, domain.SeverityCritical, time.Hour); err != nil {
		t.Fatalf("update rule: %v", err)
	}
	rule, _ = e.GetRule("temperature_high")
	if rule.Enabled || rule.Severity != domain.SeverityCritical || rule.Cooldown != time.Hour {
		t.Error("update did not apply")
	}

	if err := e.RemoveRule("temperature_high"); err != nil {
		t.Fatalf("remove rule: %v", err)
	}
	if _, ok := e.GetRule("temperature_high"); ok {
		t.Error("removed rule should be gone")
	}
	if err := e.RemoveRule("temperature_high"); err == nil {
		t.Error("removing a missing rule should fail")
	}
}

func TestGetRuleReturnsSnapshot(t *testing.T) {
	e := NewAlertRulesEngine()

	before, ok := e.GetRule("battery_low")
	if !ok {
		t.Fatal("battery_low should exist")
	}
	if err := e.UpdateRule("battery_low", false, domain.SeverityCritical, time.Hour); err != nil {
		t.Fatalf("update rule: %v", err)
	}

	// rules handed out earlier must not observe the in-place update
	if !before.Enabled || before.Severity == domain.SeverityCritical {
		t.Error("snapshot must not change when the stored rule is updated")
	}

	// and mutating a returned rule must not reach the engine
	after, _ := e.GetRule("battery_low")
	after.Enabled = true
	stored, _ := e.GetRule("battery_low")
	if stored.Enabled {
		t.Error("mutating a snapshot must not affect the stored rule")
	}

	for _, r := range e.Rules() {
		if r.ID == "battery_low" && r.Enabled {
			t.Error("Rules must reflect the stored state, not caller mutations")
		}
	}
}

func TestEvaluate_DisabledRuleSkipped(t *testing.T) {
	e := NewAlertRulesEngine()
	if err := e.UpdateRule("battery_low", false, "", 0); err != nil {
		t.Fatal(err)
	}

	s := baseSnapshot("AT-001")
	s.BatteryLevel = floatPtr(15)
	if len(e.Evaluate(s)) != 0 {
		t.Error("disabled rule must not fire")
	}
}
