package web

import (
	"fmt"
	"math"
	"time"

	"github.com/sweeney/carwash-monitor/internal/store"
)

// Pricing converts recorded timer time and maintenance coins into money.
type Pricing struct {
	// PricePerMinute is what a customer pays per minute of timer time.
	PricePerMinute float64
	// CoinValue is the value of one maintenance coin, deducted from revenue.
	CoinValue float64
}

// DefaultPricing returns the controller's coin pricing: one quarter per minute.
func DefaultPricing() Pricing {
	return Pricing{PricePerMinute: 0.25, CoinValue: 0.25}
}

// BayReport is one bay's live row, session totals and revenue.
type BayReport struct {
	Bay                int     `json:"bay"`
	TimerRunning       bool    `json:"timer_running"`
	PumpRunning        bool    `json:"pump_running"`
	TimerRuntime       float64 `json:"timer_runtime"`
	PumpRuntime        float64 `json:"pump_runtime"`
	Sessions           int     `json:"sessions"`
	TimerSeconds       float64 `json:"timer_seconds"`
	PumpSeconds        float64 `json:"pump_seconds"`
	MaintenanceInserts int     `json:"maintenance_inserts"`
	GrossRevenue       float64 `json:"gross_revenue"`
	MaintenanceValue   float64 `json:"maintenance_value"`
	NetRevenue         float64 `json:"net_revenue"`
}

// Report is the dashboard's view of the database.
type Report struct {
	GeneratedAt     time.Time   `json:"generated_at"`
	Bays            []BayReport `json:"bays"`
	TotalNetRevenue float64     `json:"total_net_revenue"`
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}

// BuildReport reads live status and history from r and prices it.
func BuildReport(r store.Reader, p Pricing, now time.Time) (Report, error) {
	live, err := r.LiveStatuses()
	if err != nil {
		return Report{}, fmt.Errorf("build report: %w", err)
	}
	totals, err := r.SessionTotals()
	if err != nil {
		return Report{}, fmt.Errorf("build report: %w", err)
	}
	inserts, err := r.MaintenanceCounts()
	if err != nil {
		return Report{}, fmt.Errorf("build report: %w", err)
	}

	report := Report{GeneratedAt: now.UTC()}
	var net float64
	for _, ls := range live {
		t := totals[ls.Bay]
		br := BayReport{
			Bay:                ls.Bay,
			TimerRunning:       ls.TimerRunning,
			PumpRunning:        ls.PumpRunning,
			TimerRuntime:       ls.TimerRuntime,
			PumpRuntime:        ls.PumpRuntime,
			Sessions:           t.Sessions,
			TimerSeconds:       t.TimerSeconds,
			PumpSeconds:        t.PumpSeconds,
			MaintenanceInserts: inserts[ls.Bay],
		}
		gross := t.TimerSeconds / 60 * p.PricePerMinute
		maintenance := float64(br.MaintenanceInserts) * p.CoinValue
		br.GrossRevenue = cents(gross)
		br.MaintenanceValue = cents(maintenance)
		br.NetRevenue = cents(gross - maintenance)
		net += gross - maintenance

		report.Bays = append(report.Bays, br)
	}
	report.TotalNetRevenue = cents(net)
	return report, nil
}
