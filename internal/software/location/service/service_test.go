package service

import (
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

type fakeGeocoder struct {
	coords contracts.Coordinates
	err    error
	gotEnv contracts.Envelope
}

func (f *fakeGeocoder) Geocode(_ context.Context, env contracts.Envelope, _ contracts.Address) (contracts.Coordinates, error) {
	f.gotEnv = env
	return f.coords, f.err
}

type fakeTransit struct {
	envs   []contracts.Envelope
	coords []contracts.Coordinates
}

func (f *fakeTransit) SubmitCoordinates(_ context.Context, env contracts.Envelope, coords contracts.Coordinates) {
	f.envs = append(f.envs, env)
	f.coords = append(f.coords, coords)
}

func newLocation(geo *fakeGeocoder, tr *fakeTransit) (*locationService, *stagestate.Store[Model]) {
	store := stagestate.New[Model](time.Minute)
	svc := NewLocationService(logger.NewWithWriter("location-test", io.Discard), store, geo, tr)
	return svc.(*locationService), store
}

func TestResolveForwardsCoordinates(t *testing.T) {
	geo := &fakeGeocoder{coords: contracts.Coordinates{Latitude: 53.553, Longitude: 9.993}}
	tr := &fakeTransit{}
	svc, store := newLocation(geo, tr)
	env := contracts.NewEnvelope("corr-1", contracts.CallerDisplay)

	if err := svc.Resolve(context.Background(), env, contracts.Address{Street: "Jungfernstieg", HouseNumber: "1"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if geo.gotEnv.CorrelationID != "corr-1" {
		t.Fatalf("geocode env = %+v", geo.gotEnv)
	}
	if len(tr.coords) != 1 || tr.coords[0] != geo.coords || tr.envs[0].CorrelationID != "corr-1" {
		t.Fatalf("forwarded %+v with %+v", tr.coords, tr.envs)
	}
	latest, ok := store.Latest()
	if !ok || latest.Coordinates == nil || *latest.Coordinates != geo.coords || latest.Address.Street != "Jungfernstieg" {
		t.Fatalf("latest = %+v", latest)
	}
	if _, ok := store.Get("corr-1"); ok {
		t.Fatal("record should be completed")
	}
}

func TestResolveStopsOnGeocodeFailure(t *testing.T) {
	notFound := errstatus.New(errstatus.CodeNotFound, "Address not found", "Nowhere 1")
	tr := &fakeTransit{}
	svc, store := newLocation(&fakeGeocoder{err: notFound}, tr)

	err := svc.Resolve(context.Background(), contracts.NewEnvelope("corr-2", contracts.CallerDisplay),
		contracts.Address{Street: "Nowhere", HouseNumber: "1"})
	if err == nil || !errors.Is(err, notFound) {
		t.Fatalf("err = %v", err)
	}
	if len(tr.coords) != 0 {
		t.Fatalf("forwarded %+v after failure", tr.coords)
	}
	if latest, _ := store.Latest(); latest.Coordinates != nil {
		t.Fatalf("coordinates saved after failure: %+v", latest)
	}
}
