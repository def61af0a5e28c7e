package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"RatePulse/internal/model"

	"github.com/rs/zerolog"
)

func newRateServer(t *testing.T, handlers map[string]func(w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func body(s string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(s))
	}
}

func TestFloatRatesFetcher_FetchRate(t *testing.T) {
	srv := newRateServer(t, map[string]func(w http.ResponseWriter){
		"/usd.json": body(`{"rub":{"code":"RUB","rate":91.23,"inverseRate":0.0109}}`),
		"/eur.json": body(`{"gbp":{"code":"GBP","rate":0.87}}`),
		"/cny.json": body(`{"rub":{"code":"RUB"}}`),
		"/jpy.json": body(`not json`),
		"/chf.json": body(`{"rub":{"code":"RUB","rate":0}}`),
		"/try.json": func(w http.ResponseWriter) { w.WriteHeader(http.StatusBadGateway) },
	})
	f := NewFloatRatesFetcher(srv.URL+"/", "rub", "", 2*time.Second)

	rate, err := f.FetchRate(context.Background(), "usd")
	if err != nil {
		t.Fatalf("FetchRate(usd): %v", err)
	}
	if rate != 91.23 {
		t.Errorf("rate = %v, want 91.23", rate)
	}

	for _, cur := range []model.Currency{"eur", "cny", "jpy", "chf", "try", "xyz"} {
		_, err := f.FetchRate(context.Background(), cur)
		if err == nil {
			t.Errorf("FetchRate(%s): expected error", cur)
			continue
		}
		var fe *FetchError
		if !errors.As(err, &fe) || fe.Currency != cur {
			t.Errorf("FetchRate(%s): expected FetchError for currency, got %v", cur, err)
		}
	}

	_, err = f.FetchRate(context.Background(), "eur")
	if !errors.Is(err, ErrMissingRate) {
		t.Errorf("expected ErrMissingRate for absent quote, got %v", err)
	}
}

func TestFloatRatesFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewFloatRatesFetcher(srv.URL, "rub", "", 5*time.Second)
	c := NewCollector(f, []model.Currency{"usd"}, 50*time.Millisecond, zerolog.Nop())

	start := time.Now()
	obs, errs := c.Collect(context.Background())
	if len(obs) != 0 || len(errs) != 1 {
		t.Fatalf("expected one failure, got obs=%d errs=%d", len(obs), len(errs))
	}
	if time.Since(start) > time.Second {
		t.Errorf("per-call timeout not applied, took %v", time.Since(start))
	}
}

func TestCollect_FailureDoesNotBlockOtherCurrencies(t *testing.T) {
	m := &MockFetcher{
		Rates: map[model.Currency]float64{"eur": 99.5},
		Errs:  map[model.Currency]error{"usd": errors.New("connection refused")},
	}
	c := NewCollector(m, []model.Currency{"usd", "eur"}, time.Second, zerolog.Nop())

	obs, errs := c.Collect(context.Background())
	if len(obs) != 1 || obs[0].Currency != "eur" || obs[0].Rate != 99.5 {
		t.Fatalf("unexpected observations: %+v", obs)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	var fe *FetchError
	if !errors.As(errs[0], &fe) || fe.Currency != "usd" {
		t.Errorf("expected FetchError for usd, got %v", errs[0])
	}
	if m.Calls != 2 {
		t.Errorf("expected both currencies fetched, calls=%d", m.Calls)
	}
}

func TestCollect_PreservesOrder(t *testing.T) {
	m := &MockFetcher{Rates: map[model.Currency]float64{"usd": 90, "eur": 100, "cny": 12.5}}
	c := NewCollector(m, []model.Currency{"cny", "usd", "eur"}, 0, zerolog.Nop())
	obs, errs := c.Collect(context.Background())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []model.Currency{"cny", "usd", "eur"}
	for i, o := range obs {
		if o.Currency != want[i] {
			t.Errorf("obs[%d] = %s, want %s", i, o.Currency, want[i])
		}
		if o.ObservedAt.IsZero() {
			t.Errorf("obs[%d] has no observation time", i)
		}
	}
}
