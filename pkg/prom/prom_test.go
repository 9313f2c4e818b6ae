package prom

import (
	"errors"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func family(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	families, err := Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestDisabledMetricsAreNoOps(t *testing.T) {
	Disable()
	ObserveOperation("add_transaction", time.Now(), nil)
	SetOutstandingCredit(10)
	AddReconcileDrifts(1)
}

func TestObserveOperation(t *testing.T) {
	require.NoError(t, Create("localhost", "test", ""))
	t.Cleanup(Disable)

	start := time.Now()
	ObserveOperation("add_transaction", start, nil)
	ObserveOperation("add_transaction", start, nil)
	ObserveOperation("add_transaction", start, errors.New("boom"))

	f := family(t, "ledger_operations_total")
	require.NotNil(t, f)
	byResult := map[string]float64{}
	for _, m := range f.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "result" {
				byResult[l.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, byResult[ResultOK])
	assert.Equal(t, 1.0, byResult[ResultError])

	h := family(t, "ledger_operation_duration_seconds")
	require.NotNil(t, h)
	assert.Equal(t, uint64(3), h.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestGaugeAndCounter(t *testing.T) {
	require.NoError(t, Create("localhost", "test", "baki"))
	t.Cleanup(Disable)

	SetOutstandingCredit(540)
	AddReconcileDrifts(2)

	g := family(t, "baki_ledger_outstanding_credit")
	require.NotNil(t, g)
	assert.Equal(t, 540.0, g.GetMetric()[0].GetGauge().GetValue())

	c := family(t, "baki_ledger_reconcile_drifts_total")
	require.NotNil(t, c)
	assert.Equal(t, 2.0, c.GetMetric()[0].GetCounter().GetValue())
}

func TestCreateMetric_UnknownType(t *testing.T) {
	assert.Error(t, CreateMetric("summary", SystemLedger, "x"))
}
