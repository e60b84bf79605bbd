// Package monitoring raises alerts when the latest snapshot's KPIs cross
// configured thresholds.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/cart-monitor/internal/config"
	"github.com/sells-group/cart-monitor/internal/model"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertIssueRate      AlertType = "issue_rate"
	AlertHardIssueRate  AlertType = "hard_issue_rate"
	AlertMissingInBRate AlertType = "missing_in_b_rate"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type         AlertType      `json:"type"`
	Severity     string         `json:"severity"`
	SnapshotDate string         `json:"snapshot_date"`
	Message      string         `json:"message"`
	Details      map[string]any `json:"details,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Alerter evaluates daily KPIs against configured thresholds and sends
// alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Latest returns the KPI row with the greatest snapshot date.
func Latest(kpis []model.DailyKPI) (model.DailyKPI, bool) {
	var latest model.DailyKPI
	for _, k := range kpis {
		if k.SnapshotDate > latest.SnapshotDate {
			latest = k
		}
	}
	return latest, latest.SnapshotDate != ""
}

// Evaluate checks the most recent snapshot against thresholds. Days with
// fewer than MinRows rows never alert. A threshold of zero is disabled.
func (a *Alerter) Evaluate(kpis []model.DailyKPI) []Alert {
	k, ok := Latest(kpis)
	if !ok || k.Rows < a.cfg.MinRows {
		return nil
	}

	var alerts []Alert
	now := time.Now().UTC()

	check := func(typ AlertType, severity string, rate, threshold float64, count int) {
		if threshold <= 0 || rate <= threshold {
			return
		}
		alerts = append(alerts, Alert{
			Type:         typ,
			Severity:     severity,
			SnapshotDate: k.SnapshotDate,
			Message: fmt.Sprintf("%s %.1f%% exceeds threshold %.1f%% on %s (%d of %d carts)",
				typ, rate*100, threshold*100, k.SnapshotDate, count, k.Rows),
			Details: map[string]any{
				"rate":      rate,
				"threshold": threshold,
				"count":     count,
				"rows":      k.Rows,
			},
			Timestamp: now,
		})
	}

	check(AlertHardIssueRate, "high", k.HardIssueRate, a.cfg.HardIssueRateThreshold, k.HardIssue)
	check(AlertIssueRate, "medium", k.IssueRate, a.cfg.IssueRateThreshold, k.HasIssue)
	check(AlertMissingInBRate, "medium", k.MissingInBRate, a.cfg.MissingInBRateThreshold, k.MissingInB)

	return alerts
}

// SendAlerts logs every alert and delivers it to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	for _, alert := range alerts {
		zap.L().Warn("monitoring: threshold breached",
			zap.String("type", string(alert.Type)),
			zap.String("snapshot_date", alert.SnapshotDate),
			zap.String("message", alert.Message),
		)
	}
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
