package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	assert.NotNil(t, su, "expected StatsUpdater to be non-nil")
	assert.NotNil(t, su.updateChan, "expected updateChan to be initialized")
	handler, pattern := mux.Handler(&http.Request{URL: &url.URL{Path: "/debug/vars"}, Method: http.MethodGet})
	assert.NotNil(t, handler, "expected handler for /debug/vars to be set")
	assert.Equal(t, "GET /debug/vars", pattern, "expected handler to be registered for GET method on /debug/vars")

	su.RegisterMetric(MessagesPosted)
	// registering twice must not replace the counter
	su.RegisterMetric(MessagesPosted)

	su.Run()
	defer su.Stop()

	su.Incr(MessagesPosted)
	su.Incr(MessagesPosted)
	su.Decr(MessagesPosted)

	assert.Eventually(t, func() bool {
		return su.vars.Get(MessagesPosted).String() == "1"
	}, time.Second, 10*time.Millisecond, "expected counter to reach 1")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/vars", nil)
	su.expvarHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var data map[string]any
	err := json.NewDecoder(rr.Body).Decode(&data)
	assert.NoError(t, err, "failed to decode expvar response")
	assert.Contains(t, data, MessagesPosted)
	assert.Contains(t, data, "Uptime")
}
