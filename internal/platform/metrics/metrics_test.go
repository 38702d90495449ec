package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()
}

func TestCollectorsRegisterCleanly(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	RateLimitRejections.WithLabelValues("redirect").Inc()
	if got := testutil.ToFloat64(RateLimitRejections.WithLabelValues("redirect")); got < 1 {
		t.Errorf("redirect rejections = %v", got)
	}
	ViewHelperCalls.WithLabelValues("addThis", "ok").Inc()
	if n := testutil.CollectAndCount(ViewHelperCalls, "view_helper_calls_total"); n == 0 {
		t.Error("view_helper_calls_total has no series")
	}
}
