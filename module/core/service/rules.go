package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
)

const defaultRuleCooldown = 30 * time.Minute

const (
	offlineAfter        = 30 * time.Minute
	underutilizedAfter  = 24 * time.Hour
	theftDistanceMeters = 500.0
	workingHoursStart   = 8
	workingHoursEnd     = 18
	batteryLowPct       = 20.0
	batteryCriticalPct  = 10.0
)

// AlertRule is a declarative threshold rule evaluated against a transient
// asset snapshot. Condition must be free of side effects.
type AlertRule struct {
	ID              string
	Type            domain.AlertType
	Severity        domain.AlertSeverity
	Cooldown        time.Duration
	Enabled         bool
	Condition       func(s *domain.AssetSnapshot) bool
	Message         func(s *domain.AssetSnapshot) string
	Description     string
	SuggestedAction string
}

// AlertRulesEngine holds the in-memory rule table and the per-asset-per-rule
// cooldown keys. Rules themselves are stateless; the engine only remembers
// when each rule last fired for each asset.
type AlertRulesEngine struct {
	mu        sync.RWMutex
	rules     map[string]*AlertRule
	cooldowns map[string]time.Time
	now       func() time.Time
}

func NewAlertRulesEngine() *AlertRulesEngine {
	e := &AlertRulesEngine{
		rules:     make(map[string]*AlertRule),
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
	}
	for _, r := range DefaultRules() {
		e.rules[r.ID] = r
	}
	return e
}

// Evaluate runs every enabled rule not in cooldown for this asset and returns
// the alerts whose conditions held. Firing a rule starts its cooldown.
func (e *AlertRulesEngine) Evaluate(snapshot *domain.AssetSnapshot) []*domain.Alert {
	if snapshot.Now.IsZero() {
		snapshot.Now = e.now()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var alerts []*domain.Alert
	for _, rule := range e.rules {
		if !rule.Enabled {
			continue
		}
		key := snapshot.AssetID + ":" + rule.ID
		if last, ok := e.cooldowns[key]; ok && snapshot.Now.Sub(last) < rule.Cooldown {
			continue
		}
		if !rule.Condition(snapshot) {
			continue
		}

		alert := domain.NewAlert(rule.Type, rule.Severity, snapshot.AssetID, rule.Message(snapshot))
		alert.Description = rule.Description
		alert.SuggestedAction = rule.SuggestedAction
		alert.Metadata = map[string]string{"rule_id": rule.ID}
		alerts = append(alerts, alert)

		e.cooldowns[key] = snapshot.Now
	}
	return alerts
}

func (e *AlertRulesEngine) AddRule(rule *AlertRule) error {
	if rule.ID == "" {
		return fmt.Errorf("rule id: required")
	}
	if rule.Condition == nil {
		return fmt.Errorf("rule %s: condition required", rule.ID)
	}
	if rule.Cooldown <= 0 {
		rule.Cooldown = defaultRuleCooldown
	}
	if rule.Message == nil {
		rule.Message = func(s *domain.AssetSnapshot) string {
			return fmt.Sprintf("Rule %s triggered for asset %s", rule.ID, s.AssetID)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.rules[rule.ID]; exists {
		return fmt.Errorf("rule %s: already exists", rule.ID)
	}
	c := *rule
	e.rules[rule.ID] = &c
	return nil
}

func (e *AlertRulesEngine) RemoveRule(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.rules[id]; !exists {
		return fmt.Errorf("rule %s: not found", id)
	}
	delete(e.rules, id)
	return nil
}

// UpdateRule adjusts the mutable attributes of an existing rule.
func (e *AlertRulesEngine) UpdateRule(id string, enabled bool, severity domain.AlertSeverity, cooldown time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rule, exists := e.rules[id]
	if !exists {
		return fmt.Errorf("rule %s: not found", id)
	}
	rule.Enabled = enabled
	if severity != "" {
		rule.Severity = severity
	}
	if cooldown > 0 {
		rule.Cooldown = cooldown
	}
	return nil
}

// GetRule returns a snapshot of the rule. UpdateRule mutates the stored rule
// under the engine lock, so callers get a copy rather than the live pointer.
func (e *AlertRulesEngine) GetRule(id string) (*AlertRule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rule, ok := e.rules[id]
	if !ok {
		return nil, false
	}
	c := *rule
	return &c, true
}

// Rules returns snapshots of all registered rules.
func (e *AlertRulesEngine) Rules() []*AlertRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rules := make([]*AlertRule, 0, len(e.rules))
	for _, r := range e.rules {
		c := *r
		rules = append(rules, &c)
	}
	return rules
}

func outsideWorkingHours(t time.Time) bool {
	h := t.Hour()
	return h < workingHoursStart || h >= workingHoursEnd
}

// DefaultRules is the built-in rule set. Battery low only fires in the band
// above critical so a dying battery raises one alert, not two.
func DefaultRules() []*AlertRule {
	return []*AlertRule{
		{
			ID:       "battery_low",
			Type:     domain.AlertBatteryLow,
			Severity: domain.SeverityWarning,
			Cooldown: defaultRuleCooldown,
			Enabled:  true,
			Condition: func(s *domain.AssetSnapshot) bool {
				return s.BatteryLevel != nil && *s.BatteryLevel <= batteryLowPct && *s.BatteryLevel > batteryCriticalPct
			},
			Message: func(s *domain.AssetSnapshot) string {
				return fmt.Sprintf("Asset %s battery low (%.0f%%)", s.AssetID, *s.BatteryLevel)
			},
			Description:     "Tag battery at or below 20%",
			SuggestedAction: "Schedule a battery replacement",
		},
		{
			ID:       "battery_critical",
			Type:     domain.AlertBatteryCritical,
			Severity: domain.SeverityCritical,
			Cooldown: defaultRuleCooldown,
			Enabled:  true,
			Condition: func(s *domain.AssetSnapshot) bool {
				return s.BatteryLevel != nil && *s.BatteryLevel <= batteryCriticalPct
			},
			Message: func(s *domain.AssetSnapshot) string {
				return fmt.Sprintf("Asset %s battery critical (%.0f%%)", s.AssetID, *s.BatteryLevel)
			},
			Description:     "Tag battery at or below 10%; tracking will stop soon",
			SuggestedAction: "Replace the battery immediately",
		},
		{
			ID:       "offline",
			Type:     domain.AlertOffline,
			Severity: domain.SeverityWarning,
			Cooldown: defaultRuleCooldown,
			Enabled:  true,
			Condition: func(s *domain.AssetSnapshot) bool {
				return !s.LastSeen.IsZero() && s.Now.Sub(s.LastSeen) > offlineAfter
			},
			Message: func(s *domain.AssetSnapshot) string {
				return fmt.Sprintf("Asset %s has not reported for over 30 minutes", s.AssetID)
			},
			Description:     "No gateway has observed the tag for over 30 minutes",
			SuggestedAction: "Verify the tag and nearby gateways are powered",
		},
		{
			ID:       "unauthorized_zone_entry",
			Type:     domain.AlertUnauthorizedZone,
			Severity: domain.SeverityCritical,
			Cooldown: defaultRuleCooldown,
			Enabled:  true,
			Condition: func(s *domain.AssetSnapshot) bool {
				return s.InRestrictedZone
			},
			Message: func(s *domain.AssetSnapshot) string {
				return fmt.Sprintf("Asset %s is inside a restricted zone", s.AssetID)
			},
			Description:     "Asset entered a zone classified as restricted",
			SuggestedAction: "Dispatch personnel to investigate",
		},
		{
			ID:       "authorized_zone_exit",
			Type:     domain.AlertAuthorizedExit,
			Severity: domain.SeverityWarning,
			Cooldown: defaultRuleCooldown,
			Enabled:  true,
			Condition: func(s *domain.AssetSnapshot) bool {
				return s.ExitedAuthorized
			},
			Message: func(s *domain.AssetSnapshot) string {
				return fmt.Sprintf("Asset %s left its authorized zone", s.AssetID)
			},
			Description:     "Asset exited a zone classified as authorized",
			SuggestedAction: "Confirm the movement was expected",
		},
		{
			ID:       "theft_detection",
			Type:     domain.AlertTheft,
			Severity: domain.SeverityCritical,
			Cooldown: defaultRuleCooldown,
			Enabled:  true,
			Condition: func(s *domain.AssetSnapshot) bool {
				return s.MovementMeters > theftDistanceMeters && outsideWorkingHours(s.Now)
			},
			Message: func(s *domain.AssetSnapshot) string {
				return fmt.Sprintf("Asset %s moved %.0fm outside working hours", s.AssetID, s.MovementMeters)
			},
			Description:     "Significant movement outside configured working hours",
			SuggestedAction: "Verify custody of the asset and notify security",
		},
		{
			ID:       "underutilization",
			Type:     domain.AlertUnderutilized,
			Severity: domain.SeverityInfo,
			Cooldown: defaultRuleCooldown,
			Enabled:  true,
			Condition: func(s *domain.AssetSnapshot) bool {
				return !s.MovedAt.IsZero() && s.Now.Sub(s.MovedAt) > underutilizedAfter
			},
			Message: func(s *domain.AssetSnapshot) string {
				return fmt.Sprintf("Asset %s has not moved in over 24 hours", s.AssetID)
			},
			Description:     "No movement recorded in the last 24 hours",
			SuggestedAction: "Consider reassigning the asset",
		},
		{
			ID:       "maintenance_overdue",
			Type:     domain.AlertMaintenanceDue,
			Severity: domain.SeverityWarning,
			Cooldown: defaultRuleCooldown,
			Enabled:  true,
			Condition: func(s *domain.AssetSnapshot) bool {
				return s.MaintenanceDue != nil && s.MaintenanceDue.Before(s.Now)
			},
			Message: func(s *domain.AssetSnapshot) string {
				return fmt.Sprintf("Asset %s is overdue for maintenance", s.AssetID)
			},
			Description:     "Scheduled maintenance date has passed",
			SuggestedAction: "Schedule a maintenance visit",
		},
	}
}
