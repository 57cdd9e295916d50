package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingPreviewTotal counts configurator price previews served.
	PricingPreviewTotal prometheus.Counter
	// PaymentRegisterTotal counts payment registration outcomes.
	PaymentRegisterTotal *prometheus.CounterVec
	// PaymentApprovalTotal counts payment approval outcomes, including
	// amount mismatches rejected at the trust boundary.
	PaymentApprovalTotal *prometheus.CounterVec
	// QuoteRenderTotal counts PDF quote documents rendered.
	QuoteRenderTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingPreviewTotal = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_preview_total",
			Help:      "Number of configurator price previews computed.",
		}))
		PaymentRegisterTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_register_total",
			Help:      "Count of payment registration outcomes.",
		}, []string{"provider", "result"}))
		PaymentApprovalTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_approval_total",
			Help:      "Count of payment approval outcomes.",
		}, []string{"provider", "result"}))
		QuoteRenderTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_render_total",
			Help:      "Count of PDF quote renders by outcome.",
		}, []string{"result"}))
	})
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
