package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/pillowbout/internal/adapters/export"
	"github.com/okian/pillowbout/internal/adapters/http/api"
	"github.com/okian/pillowbout/internal/adapters/repository"
	service "github.com/okian/pillowbout/internal/app"
	"github.com/okian/pillowbout/pkg/logger"
	"github.com/okian/pillowbout/pkg/metrics"
)

var savedAt = time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)

type harness struct {
	session *service.Session
	mux     *http.ServeMux
}

func newHarness() *harness {
	s := service.New(
		service.WithLogger(logger.Nop()),
		service.WithMetrics(metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))),
		service.WithStore(repository.NewMemoryStore()),
		service.WithTickInterval(time.Hour),
		service.WithLocation(time.UTC),
		service.WithNow(func() time.Time { return savedAt }),
	)
	So(s.Start(context.Background()), ShouldBeNil)
	Reset(func() { _ = s.Stop(context.Background()) })

	mux := http.NewServeMux()
	api.NewServer(s, s, api.WithLogger(logger.Nop())).Register(context.Background(), mux)
	return &harness{session: s, mux: mux}
}

func (h *harness) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	return w
}

func (h *harness) score(fighter, kind string) *httptest.ResponseRecorder {
	return h.do(http.MethodPost, "/bout/score", `{"fighter":"`+fighter+`","kind":"`+kind+`"}`)
}

func decodeBody(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func view(w *httptest.ResponseRecorder) map[string]any {
	body := decodeBody(w)
	if v, ok := body["view"].(map[string]any); ok {
		return v
	}
	return body
}

func TestScoring(t *testing.T) {
	Convey("Given a running judging session", t, func() {
		h := newHarness()

		Convey("When both fighters score", func() {
			So(h.score("A", "Head").Code, ShouldEqual, http.StatusCreated)
			w := h.score("B", "Knockdown")
			So(w.Code, ShouldEqual, http.StatusCreated)

			Convey("Then the response carries the event and the updated view", func() {
				body := decodeBody(w)
				So(body["status"], ShouldEqual, "recorded")
				ev := body["event"].(map[string]any)
				So(ev["fighter"], ShouldEqual, "B")
				So(ev["label"], ShouldEqual, "Knockdown")
				So(ev["points"], ShouldEqual, 5.0)
				v := view(w)
				So(v["total_a"], ShouldEqual, 1.0)
				So(v["total_b"], ShouldEqual, 5.0)
			})

			Convey("And GET /bout reflects both events", func() {
				v := view(h.do(http.MethodGet, "/bout", ""))
				So(v["events"], ShouldHaveLength, 2)
				So(v["title"], ShouldEqual, "Fighter A vs Fighter B  Round 1")
			})

			Convey("And undo removes the last event", func() {
				w := h.do(http.MethodPost, "/bout/undo", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["removed"], ShouldBeTrue)
				So(view(w)["total_b"], ShouldEqual, 0.0)
			})
		})

		Convey("When the log is empty, undo is a no-op", func() {
			w := h.do(http.MethodPost, "/bout/undo", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decodeBody(w)
			So(body["removed"], ShouldBeFalse)
			So(body["event"], ShouldBeNil)
		})

		Convey("When a request repeats an idempotency key", func() {
			body := `{"fighter":"A","kind":"360 Head"}`
			first := h.do(http.MethodPost, "/bout/score", body, api.IdempotencyKeyHeader, "tap-1")
			second := h.do(http.MethodPost, "/bout/score", body, api.IdempotencyKeyHeader, "tap-1")

			Convey("Then only one event is recorded", func() {
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(second)["duplicate"], ShouldBeTrue)
				So(view(second)["total_a"], ShouldEqual, 3.0)
			})
		})

		Convey("When the request is invalid", func() {
			cases := []struct {
				name string
				body string
			}{
				{"unknown fighter", `{"fighter":"C","kind":"Head"}`},
				{"unknown kind", `{"fighter":"A","kind":"Elbow"}`},
				{"unknown field", `{"fighter":"A","kind":"Head","points":9}`},
				{"not json", `head`},
			}
			for _, c := range cases {
				w := h.do(http.MethodPost, "/bout/score", c.body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeBody(w)["code"], ShouldEqual, "bad_request")
			}
			So(view(h.do(http.MethodGet, "/bout", ""))["events"], ShouldBeEmpty)
		})
	})
}

func TestRoundsAndClock(t *testing.T) {
	Convey("Given a running judging session", t, func() {
		h := newHarness()

		Convey("The tiebreaker is refused without a tie", func() {
			w := h.do(http.MethodPost, "/round/tiebreaker", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decodeBody(w)["code"], ShouldEqual, "tiebreaker_not_allowed")
		})

		Convey("A regulation tie after Round 3 opens the tiebreaker", func() {
			So(h.do(http.MethodPost, "/round/next", "").Code, ShouldEqual, http.StatusOK)
			w := h.do(http.MethodPost, "/round/next", "")
			So(decodeBody(w)["step"], ShouldEqual, "moved")
			So(view(w)["round"], ShouldEqual, "R3")

			w = h.do(http.MethodPost, "/round/next", "")
			So(decodeBody(w)["step"], ShouldEqual, "regulation_complete")

			h.score("A", "Pillow Break")
			w = h.score("B", "360 Head")
			So(view(w)["tiebreaker_enabled"], ShouldBeTrue)

			w = h.do(http.MethodPost, "/round/tiebreaker", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			v := view(w)
			So(v["round"], ShouldEqual, "TB")
			So(v["round_label"], ShouldEqual, "Tiebreaker 30s")
			So(v["clock"].(map[string]any)["display"], ShouldEqual, "00:30")

			w = h.do(http.MethodPost, "/round/prev", "")
			So(decodeBody(w)["step"], ShouldEqual, "unchanged")
		})

		Convey("The clock starts and pauses", func() {
			w := h.do(http.MethodPost, "/clock/start", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(view(w)["clock"].(map[string]any)["running"], ShouldBeTrue)

			w = h.do(http.MethodPost, "/clock/pause", "")
			So(view(w)["clock"].(map[string]any)["running"], ShouldBeFalse)

			w = h.do(http.MethodPost, "/clock/reset", "")
			clk := view(w)["clock"].(map[string]any)
			So(clk["remaining"], ShouldEqual, 90.0)
			So(clk["display"], ShouldEqual, "01:30")
		})
	})
}

func TestPersistenceEndpoints(t *testing.T) {
	Convey("Given a named bout with events", t, func() {
		h := newHarness()
		w := h.do(http.MethodPut, "/bout/metadata", `{"judge":"Jo","bout":"12","fighter_a":"Ann Lee","fighter_b":"Bea"}`)
		So(w.Code, ShouldEqual, http.StatusOK)
		So(view(w)["fighter_a"], ShouldEqual, "Ann Lee")
		h.score("A", "Head")
		h.score("B", "Knockdown")

		Convey("Export then import restores the same bout", func() {
			exp := h.do(http.MethodGet, "/bout/export", "")
			So(exp.Code, ShouldEqual, http.StatusOK)
			payload := exp.Body.String()
			So(payload, ShouldContainSubstring, `"fighter_a": "Ann Lee"`)

			So(h.do(http.MethodPost, "/bout/new", "").Code, ShouldEqual, http.StatusOK)
			So(view(h.do(http.MethodGet, "/bout", ""))["events"], ShouldBeEmpty)

			w := h.do(http.MethodPost, "/bout/import", payload)
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decodeBody(w)
			So(body["report"].(map[string]any)["loaded"], ShouldEqual, 2.0)
			So(view(w)["total_b"], ShouldEqual, 5.0)
		})

		Convey("A malformed import is rejected and changes nothing", func() {
			w := h.do(http.MethodPost, "/bout/import", `{"judge":"x","events":{}}`)
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(decodeBody(w)["code"], ShouldEqual, "malformed_payload")
			So(view(h.do(http.MethodGet, "/bout", ""))["judge"], ShouldEqual, "Jo")
		})

		Convey("Save, list and open round trip through the store", func() {
			w := h.do(http.MethodPost, "/bout/save", "")
			So(w.Code, ShouldEqual, http.StatusCreated)
			name := decodeBody(w)["name"].(string)
			So(name, ShouldEqual, "20250601_183000_Ann_Lee_vs_Bea.json")

			list := decodeBody(h.do(http.MethodGet, "/bouts", ""))["bouts"].([]any)
			So(list, ShouldHaveLength, 1)
			So(list[0].(map[string]any)["name"], ShouldEqual, name)

			h.do(http.MethodPost, "/bout/new", "")
			w = h.do(http.MethodPost, "/bouts/"+name+"/open", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(w)["name"], ShouldEqual, name)
			So(view(w)["total_a"], ShouldEqual, 1.0)
		})

		Convey("Opening a missing or invalid name fails cleanly", func() {
			So(h.do(http.MethodPost, "/bouts/nope.json/open", "").Code, ShouldEqual, http.StatusNotFound)
			So(h.do(http.MethodPost, "/bouts/nope.txt/open", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("The score sheet downloads as a workbook", func() {
			w := h.do(http.MethodGet, "/bout/sheet.xlsx", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, export.ContentType)
			f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
			So(err, ShouldBeNil)
			defer f.Close()
			winner, err := f.GetCellValue(export.SheetName, "B14")
			So(err, ShouldBeNil)
			So(winner, ShouldEqual, "Bea")
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given a running judging session", t, func() {
		h := newHarness()

		Convey("Health and metrics scrape the registry", func() {
			h.do(http.MethodGet, "/bout", "")
			So(h.do(http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			w := h.do(http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("Stats report the session", func() {
			body := decodeBody(h.do(http.MethodGet, "/stats", ""))
			So(body["session_id"], ShouldEqual, h.session.ID())
			So(body["started"], ShouldBeTrue)
		})

		Convey("Request ids are echoed or assigned", func() {
			w := h.do(http.MethodGet, "/bout", "", api.RequestIDHeader, "abc")
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc")
			w = h.do(http.MethodGet, "/bout", "")
			So(w.Header().Get(api.RequestIDHeader), ShouldHaveLength, 36)
		})

		Convey("Wrong methods are rejected by the router", func() {
			So(h.do(http.MethodGet, "/bout/score", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("A stopped session answers 503", func() {
			So(h.session.Stop(context.Background()), ShouldBeNil)
			w := h.do(http.MethodGet, "/bout", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decodeBody(w)["code"], ShouldEqual, "unavailable")
		})
	})
}

func TestRegisterNilMux(t *testing.T) {
	Convey("Registering on a nil mux panics", t, func() {
		s := api.NewServer(nil, nil)
		So(func() { s.Register(context.Background(), nil) }, ShouldPanic)
	})
}

func TestWrapKind(t *testing.T) {
	Convey("Kind errors match both the kind and the cause", t, func() {
		cause := context.Canceled
		err := api.WrapKind("op", api.ErrBadRequest, cause)
		So(err.Error(), ShouldEqual, "op: bad request: context canceled")
		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(api.WrapKind("op", api.ErrBadRequest, nil), ShouldBeNil)
		So(api.NewKind("op", api.ErrBackpressure).Error(), ShouldEqual, "op: backpressure")
	})
}
