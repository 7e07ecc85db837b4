package metrics

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics tracks money movement outcomes.
type LedgerMetrics struct {
	settlements     prometheus.Counter
	commissionCents prometheus.Counter
	netCents        prometheus.Counter
	withdrawals     *prometheus.CounterVec
	drift           prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on reg. A nil registerer
// yields a no-op recorder.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	m := &LedgerMetrics{
		settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gigmarket_settlements_total",
			Help: "Orders settled to the seller wallet.",
		}),
		commissionCents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gigmarket_settlement_commission_cents_total",
			Help: "Commission retained by the marketplace, in minor units.",
		}),
		netCents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gigmarket_settlement_net_cents_total",
			Help: "Net amount credited to sellers, in minor units.",
		}),
		withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gigmarket_withdrawals_total",
			Help: "Withdrawal requests by outcome.",
		}, []string{"outcome"}),
		drift: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_balance_drift_total",
			Help: "Wallets whose cached balance disagreed with the ledger during reconciliation.",
		}),
	}
	reg.MustRegister(m.settlements, m.commissionCents, m.netCents, m.withdrawals, m.drift)
	return m
}

// ObserveSettlement records one completed settlement split.
func (m *LedgerMetrics) ObserveSettlement(commissionCents, netCents int64) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.Inc()
	m.commissionCents.Add(float64(commissionCents))
	m.netCents.Add(float64(netCents))
}

// IncWithdrawal counts a withdrawal transition (requested, completed, rejected).
func (m *LedgerMetrics) IncWithdrawal(outcome string) {
	if m == nil || m.withdrawals == nil {
		return
	}
	m.withdrawals.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncDrift counts one wallet found out of balance.
func (m *LedgerMetrics) IncDrift() {
	if m == nil || m.drift == nil {
		return
	}
	m.drift.Inc()
}
