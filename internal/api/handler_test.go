package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"prisched/internal/sched"
)

func newTestHandler() *Handler {
	return NewHandler(sched.DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandler_Health(t *testing.T) {
	ass := assert.New(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	newTestHandler().Routes().ServeHTTP(rr, req)

	ass.Equal(http.StatusOK, rr.Code)
	ass.JSONEq(`{"status":"ok"}`, rr.Body.String())
}

func TestHandler_Simulate(t *testing.T) {
	ass := assert.New(t)

	// comment padding past maxBodyBytes, then a line a cut body would shorten
	oversized := strings.Repeat("# padding line pushing the body past the limit\n", maxBodyBytes/32) + "1 0 1 5 3 7\n"
	const longBurst = "1 0 1 1000000000000000\n"

	tests := []struct {
		name         string
		query        string
		body         string
		wantedStatus int
		check        func(body string)
	}{
		{
			name:         "preemption scenario",
			body:         "# two processes\n1 0 2 10\n2 2 1 4\n",
			wantedStatus: http.StatusOK,
			check: func(body string) {
				ass.Equal("event", gjson.Get(body, "strategy").String())
				ass.Equal(int64(4), gjson.Get(body, `processes.#(pid==1).waiting`).Int())
				ass.Equal(int64(14), gjson.Get(body, `processes.#(pid==1).turnaround`).Int())
				ass.Equal(int64(0), gjson.Get(body, `processes.#(pid==2).waiting`).Int())
				ass.Equal(int64(3), gjson.Get(body, "timeline.#").Int())
			},
		},
		{
			name:         "tick strategy with verification",
			query:        "?strategy=tick&verify=true",
			body:         "1 0 1 5 3 7 2 9\n",
			wantedStatus: http.StatusOK,
			check: func(body string) {
				ass.Equal(int64(21), gjson.Get(body, "processes.0.cpu_time").Int())
				ass.Equal(int64(5), gjson.Get(body, "processes.0.io_time").Int())
				ass.Equal(int64(26), gjson.Get(body, "makespan").Int())
			},
		},
		{
			name:         "malformed burst",
			body:         "1 0 1 5\n1 0 1 5 -3\n",
			wantedStatus: http.StatusBadRequest,
			check: func(body string) {
				ass.Equal(int64(2), gjson.Get(body, "line").Int())
				ass.Contains(gjson.Get(body, "error").String(), "non-positive")
			},
		},
		{
			name:         "unknown strategy",
			query:        "?strategy=lottery",
			body:         "1 0 1 5\n",
			wantedStatus: http.StatusBadRequest,
		},
		{
			name:         "bad verify flag",
			query:        "?verify=maybe",
			body:         "1 0 1 5\n",
			wantedStatus: http.StatusBadRequest,
		},
		{
			name:         "duplicate pid",
			body:         "1 0 1 5\n1 3 1 2\n",
			wantedStatus: http.StatusUnprocessableEntity,
			check: func(body string) {
				ass.Contains(gjson.Get(body, "error").String(), "already exists")
			},
		},
		{
			name:         "empty batch",
			body:         "# nothing\n",
			wantedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:         "negative pid",
			body:         "5 8 1 1\n-1 2 1 3\n",
			wantedStatus: http.StatusBadRequest,
			check: func(body string) {
				ass.Equal(int64(2), gjson.Get(body, "line").Int())
				ass.Contains(gjson.Get(body, "error").String(), "negative process ID")
			},
		},
		{
			name:         "body over limit",
			body:         oversized,
			wantedStatus: http.StatusRequestEntityTooLarge,
			check: func(body string) {
				ass.Contains(gjson.Get(body, "error").String(), "exceeds")
				ass.False(gjson.Get(body, "processes").Exists())
			},
		},
		{
			name:         "tick horizon over limit",
			query:        "?strategy=tick",
			body:         longBurst,
			wantedStatus: http.StatusUnprocessableEntity,
			check: func(body string) {
				ass.Contains(gjson.Get(body, "error").String(), "tick horizon")
			},
		},
		{
			name:         "verification horizon over limit",
			query:        "?verify=true",
			body:         longBurst,
			wantedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:         "event strategy jumps over long bursts",
			body:         longBurst,
			wantedStatus: http.StatusOK,
			check: func(body string) {
				ass.Equal(int64(1000000000000000), gjson.Get(body, "makespan").Int())
				ass.LessOrEqual(gjson.Get(body, "steps").Int(), int64(2))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/simulate"+tt.query, strings.NewReader(tt.body))

			newTestHandler().Routes().ServeHTTP(rr, req)

			ass.Equal(tt.wantedStatus, rr.Code, rr.Body.String())
			ass.Equal("application/json", rr.Header().Get("Content-Type"))
			ass.True(gjson.Valid(rr.Body.String()))
			if tt.check != nil {
				tt.check(rr.Body.String())
			}
		})
	}
}

func TestHandler_MaxTicksFromConfig(t *testing.T) {
	ass := assert.New(t)
	cfg := sched.DefaultConfig()
	cfg.Server.MaxTicks = 20
	h := NewHandler(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// horizon 26: 21 CPU units plus 5 I/O units
	body := "1 0 1 5 3 7 2 9\n"
	for query, want := range map[string]int{
		"?strategy=tick": http.StatusUnprocessableEntity,
		"?verify=true":   http.StatusUnprocessableEntity,
		"":               http.StatusOK,
	} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/simulate"+query, strings.NewReader(body))
		h.Routes().ServeHTTP(rr, req)
		ass.Equal(want, rr.Code, "query %q: %s", query, rr.Body.String())
	}
}
