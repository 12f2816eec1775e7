package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/rpc"
)

type fakeProviders struct {
	last      time.Time
	hasLast   bool
	gotAddr   contracts.Address
	gotMax    int
	gotCorrelation string
}

func (f *fakeProviders) Geocode(ctx context.Context, addr contracts.Address) (*contracts.GeocodeResponse, error) {
	f.gotAddr = addr
	f.gotCorrelation = logger.CorrelationID(ctx)
	return &contracts.GeocodeResponse{Coordinates: contracts.Coordinates{Latitude: 53.5, Longitude: 10}}, nil
}

func (f *fakeProviders) NearbyStations(_ context.Context, _ contracts.Coordinates, maxStations int) (*contracts.StationsResponse, error) {
	f.gotMax = maxStations
	return &contracts.StationsResponse{Stations: []contracts.Station{{ID: "A"}}}, nil
}

func (f *fakeProviders) DeparturesForStations(_ context.Context, stations []contracts.Station) (*contracts.StationsResponse, error) {
	return &contracts.StationsResponse{Stations: stations}, nil
}

func (f *fakeProviders) LastInteraction() (time.Time, bool) { return f.last, f.hasLast }

type fakeDisplay struct {
	mu   sync.Mutex
	envs []contracts.Envelope
	text []string
}

func (f *fakeDisplay) SubmitAddressText(_ context.Context, env contracts.Envelope, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envs = append(f.envs, env)
	f.text = append(f.text, text)
}

func newHandler(p *fakeProviders, d *fakeDisplay) (*GatewayHandler, *http.ServeMux) {
	h := NewGatewayHandler(p, d, logger.NewWithWriter("gateway-test", io.Discard), nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, mux
}

func get(mux *http.ServeMux, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestLocationAccepted(t *testing.T) {
	d := &fakeDisplay{}
	_, mux := newHandler(&fakeProviders{}, d)

	rec := get(mux, "/api/location?address="+url.QueryEscape("Jungfernstieg 1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := "Address received. Searching for nearest departures at Jungfernstieg 1 now..."
	if rec.Body.String() != want {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if len(d.text) != 1 || d.text[0] != "Jungfernstieg 1" {
		t.Fatalf("forwarded = %v", d.text)
	}
	if d.envs[0].Caller != contracts.CallerGateway || d.envs[0].CorrelationID == "" {
		t.Fatalf("envelope = %+v", d.envs[0])
	}
}

func TestLocationReusesRequestID(t *testing.T) {
	d := &fakeDisplay{}
	_, mux := newHandler(&fakeProviders{}, d)

	req := httptest.NewRequest(http.MethodGet, "/api/location?address=Hauptstr.+5", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if d.envs[0].CorrelationID != "req-42" {
		t.Fatalf("correlation id = %q", d.envs[0].CorrelationID)
	}
}

func TestLocationNoInput(t *testing.T) {
	for _, target := range []string{"/api/location", "/api/location?address=", "/api/location?address=+++"} {
		d := &fakeDisplay{}
		_, mux := newHandler(&fakeProviders{}, d)

		rec := get(mux, target)
		if rec.Code != http.StatusBadRequest || rec.Body.String() != "No input detected." {
			t.Fatalf("%s: %d %q", target, rec.Code, rec.Body.String())
		}
		if len(d.text) != 0 {
			t.Fatalf("%s: forwarded %v", target, d.text)
		}
	}
}

func TestStatus(t *testing.T) {
	_, mux := newHandler(&fakeProviders{}, &fakeDisplay{})
	if rec := get(mux, "/api/status"); rec.Body.String() != "No supplier data received yet." {
		t.Fatalf("body = %q", rec.Body.String())
	}

	at := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	_, mux = newHandler(&fakeProviders{last: at, hasLast: true}, &fakeDisplay{})
	if rec := get(mux, "/api/status"); rec.Body.String() != "2026-03-01T12:30:00Z" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	_, mux := newHandler(&fakeProviders{}, &fakeDisplay{})
	rec := get(mux, "/api/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "IT IS OK" {
		t.Fatalf("%d %q", rec.Code, rec.Body.String())
	}
}

func TestRPCMethods(t *testing.T) {
	p := &fakeProviders{}
	h, _ := newHandler(p, &fakeDisplay{})
	srv := rpc.NewServer(logger.NewWithWriter("gateway-test", io.Discard))
	h.RegisterRPC(srv)

	body, _ := json.Marshal(contracts.GeocodeRequest{
		Address:  contracts.Address{Street: "Jungfernstieg", HouseNumber: "1"},
		Envelope: contracts.NewEnvelope("corr-1", contracts.CallerLocation),
	})
	out, err := srv.Dispatch(context.Background(), contracts.ServiceGateway, contracts.MethodGeocode, body)
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	var geo contracts.GeocodeResponse
	if err := json.Unmarshal(out, &geo); err != nil {
		t.Fatal(err)
	}
	if geo.Coordinates.Latitude != 53.5 || p.gotAddr.Street != "Jungfernstieg" || p.gotCorrelation != "corr-1" {
		t.Fatalf("geo = %+v, addr = %+v, corr = %q", geo, p.gotAddr, p.gotCorrelation)
	}

	body, _ = json.Marshal(contracts.NearbyStationsRequest{MaxStations: 50})
	if _, err := srv.Dispatch(context.Background(), contracts.ServiceGateway, contracts.MethodNearbyStations, body); err != nil {
		t.Fatalf("NearbyStations: %v", err)
	}
	if p.gotMax != 50 {
		t.Fatalf("max = %d", p.gotMax)
	}

	body, _ = json.Marshal(contracts.DeparturesRequest{Stations: []contracts.Station{{ID: "B"}}})
	out, err = srv.Dispatch(context.Background(), contracts.ServiceGateway, contracts.MethodDeparturesForStations, body)
	if err != nil {
		t.Fatalf("DeparturesForStations: %v", err)
	}
	var st contracts.StationsResponse
	if err := json.Unmarshal(out, &st); err != nil {
		t.Fatal(err)
	}
	if len(st.Stations) != 1 || st.Stations[0].ID != "B" {
		t.Fatalf("stations = %+v", st.Stations)
	}
}
