package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestContractMetricsObserve(t *testing.T) {
	m := ContractMetrics()
	before := testutil.ToFloat64(m.calls.WithLabelValues("spendlimit", "execute", "error"))
	m.Observe("spendlimit", "execute", errors.New("boom"), 5*time.Millisecond)
	after := testutil.ToFloat64(m.calls.WithLabelValues("spendlimit", "execute", "error"))
	if after-before != 1 {
		t.Fatalf("calls: got delta %v want 1", after-before)
	}

	m.RecordSubmessage("")
	if got := testutil.ToFloat64(m.submessages.WithLabelValues("unknown")); got < 1 {
		t.Fatalf("submessages: got %v want >= 1", got)
	}

	var nilMetrics *contractMetrics
	nilMetrics.Observe("x", "y", nil, time.Second)
	nilMetrics.RecordRollback("execute")
}
