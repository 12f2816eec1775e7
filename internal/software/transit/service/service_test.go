package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/errstatus"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/stagestate"
)

type fakeFinder struct {
	nearby     []contracts.Station
	nearbyErr  error
	depsErr    error
	fetchedAt  *time.Time
	gotMax     int
	gotRanked  []contracts.Station
	depsCalled bool
}

func (f *fakeFinder) NearbyStations(_ context.Context, _ contracts.Envelope, _ contracts.Coordinates, maxStations int) ([]contracts.Station, error) {
	f.gotMax = maxStations
	return f.nearby, f.nearbyErr
}

func (f *fakeFinder) DeparturesForStations(_ context.Context, _ contracts.Envelope, stations []contracts.Station) ([]contracts.Station, *time.Time, error) {
	f.depsCalled = true
	f.gotRanked = stations
	if f.depsErr != nil {
		return nil, nil, f.depsErr
	}
	out := make([]contracts.Station, 0, len(stations))
	for _, s := range stations {
		s.Departures = []contracts.Departure{{LineName: "U1 " + s.Name}}
		out = append(out, s)
	}
	return out, f.fetchedAt, nil
}

type shown struct {
	env       contracts.Envelope
	stations  []contracts.Station
	fetchedAt *time.Time
}

type fakeDisplay struct {
	calls []shown
}

func (f *fakeDisplay) ShowDepartures(_ context.Context, env contracts.Envelope, stations []contracts.Station, fetchedAt *time.Time) {
	f.calls = append(f.calls, shown{env: env, stations: stations, fetchedAt: fetchedAt})
}

func newTransit(finder *fakeFinder, display *fakeDisplay) (*transitService, *stagestate.Store[Model]) {
	return newTransitLogging(finder, display, io.Discard)
}

func newTransitLogging(finder *fakeFinder, display *fakeDisplay, out io.Writer) (*transitService, *stagestate.Store[Model]) {
	store := stagestate.New[Model](time.Minute)
	svc := NewTransitService(logger.NewWithWriter("transit-test", out), store, finder, display, 50, 3)
	return svc.(*transitService), store
}

func fiveStations() []contracts.Station {
	return []contracts.Station{
		{ID: "A", Name: "A", DistanceMeters: 300},
		{ID: "B", Name: "B", DistanceMeters: 10},
		{ID: "C", Name: "C", DistanceMeters: 200},
		{ID: "D", Name: "D", DistanceMeters: 50},
		{ID: "E", Name: "E", DistanceMeters: 150},
	}
}

func TestResolveRanksAndForwards(t *testing.T) {
	fetched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finder := &fakeFinder{nearby: fiveStations(), fetchedAt: &fetched}
	display := &fakeDisplay{}
	svc, store := newTransit(finder, display)
	env := contracts.NewEnvelope("corr-1", contracts.CallerLocation)

	if err := svc.Resolve(context.Background(), env, contracts.Coordinates{Latitude: 53.55, Longitude: 9.99}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if finder.gotMax != 50 {
		t.Fatalf("nearby cap = %d", finder.gotMax)
	}
	var ranked []string
	for _, s := range finder.gotRanked {
		ranked = append(ranked, s.ID)
	}
	if len(ranked) != 3 || ranked[0] != "B" || ranked[1] != "D" || ranked[2] != "E" {
		t.Fatalf("ranked = %v", ranked)
	}

	if len(display.calls) != 1 {
		t.Fatalf("display calls = %d", len(display.calls))
	}
	got := display.calls[0]
	if got.env.CorrelationID != "corr-1" || len(got.stations) != 3 || !got.fetchedAt.Equal(fetched) {
		t.Fatalf("shown = %+v", got)
	}

	latest, _ := store.Latest()
	if len(latest.Stations) != 3 || latest.Coordinates.Latitude != 53.55 {
		t.Fatalf("model = %+v", latest)
	}
	if _, ok := store.Get("corr-1"); ok {
		t.Fatal("record should be completed")
	}
}

func TestResolveForwardsEmptyListOnFailure(t *testing.T) {
	cases := []struct {
		name   string
		finder *fakeFinder
	}{
		{"nearby fails", &fakeFinder{nearbyErr: errors.New("geofox down")}},
		{"departures fail", &fakeFinder{nearby: fiveStations(), depsErr: errors.New("geofox down")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			display := &fakeDisplay{}
			svc, _ := newTransit(tc.finder, display)

			if err := svc.Resolve(context.Background(), contracts.NewEnvelope("corr-2", contracts.CallerLocation), contracts.Coordinates{}); err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if len(display.calls) != 1 {
				t.Fatalf("display calls = %d", len(display.calls))
			}
			got := display.calls[0]
			if got.stations == nil || len(got.stations) != 0 || got.fetchedAt == nil {
				t.Fatalf("shown = %+v", got)
			}
			if got.env.CorrelationID != "corr-2" {
				t.Fatalf("env = %+v", got.env)
			}
		})
	}
}

func TestResolveNoNearbyStations(t *testing.T) {
	finder := &fakeFinder{nearby: []contracts.Station{}}
	display := &fakeDisplay{}
	svc, _ := newTransit(finder, display)

	if err := svc.Resolve(context.Background(), contracts.NewEnvelope("corr-3", contracts.CallerLocation), contracts.Coordinates{}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if finder.depsCalled {
		t.Fatal("departures must not be requested for zero stations")
	}
	if len(display.calls) != 1 || display.calls[0].stations == nil || len(display.calls[0].stations) != 0 {
		t.Fatalf("shown = %+v", display.calls)
	}
}

func TestResolveLogsFailureCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"unavailable", errstatus.New(errstatus.CodeUnavailable, "Geofox API unavailable", "status 503"), `"code":"UNAVAILABLE"`},
		{"foreign error", errors.New("connection reset"), `"code":"INTERNAL"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			svc, _ := newTransitLogging(&fakeFinder{nearbyErr: tc.err}, &fakeDisplay{}, &buf)

			if err := svc.Resolve(context.Background(), contracts.NewEnvelope("corr-6", contracts.CallerLocation), contracts.Coordinates{}); err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if !bytes.Contains(buf.Bytes(), []byte(tc.code)) {
				t.Fatalf("log lacks %s:\n%s", tc.code, buf.String())
			}
		})
	}
}
