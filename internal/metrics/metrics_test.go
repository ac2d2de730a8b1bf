package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err, "duplicate registration must fail")
}

func TestObserveSync(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveSync(true, 2*time.Second, 42)
	m.ObserveSync(false, time.Second, 7)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncTotal.WithLabelValues("failed")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.syncCategories))
	assert.Equal(t, 1, testutil.CollectAndCount(m.syncDuration))
}

func TestObserveValidation(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveValidation(0)
	m.ObserveValidation(3)
	m.ValidationDegraded()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationTotal.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationTotal.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationTotal.WithLabelValues("degraded")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.validationViolations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationDegraded))
}

func TestProposalAndPublish(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Proposal(EventCreated)
	m.Proposal(EventCreated)
	m.Proposal(EventApplied)
	m.Publish(true)
	m.Publish(false)

	expected := `
# HELP ontology_proposals_total Proposal lifecycle events.
# TYPE ontology_proposals_total counter
ontology_proposals_total{event="applied"} 1
ontology_proposals_total{event="created"} 2
# HELP ontology_publish_total Wiki publish attempts after applying a proposal.
# TYPE ontology_publish_total counter
ontology_publish_total{status="failed"} 1
ontology_publish_total{status="success"} 1
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "ontology_proposals_total", "ontology_publish_total")
	assert.NoError(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSync(true, time.Second, 1)
		m.ObserveValidation(2)
		m.ValidationDegraded()
		m.Proposal(EventRejected)
		m.Publish(false)
	})
}
