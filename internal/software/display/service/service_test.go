package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/stagestate"
)

type fakeLocation struct {
	envs  []contracts.Envelope
	addrs []contracts.Address
}

func (f *fakeLocation) SubmitAddress(_ context.Context, env contracts.Envelope, addr contracts.Address) {
	f.envs = append(f.envs, env)
	f.addrs = append(f.addrs, addr)
}

type fakeBoard struct {
	events []contracts.BoardEvent
	err    error
}

func (f *fakeBoard) Broadcast(_ context.Context, v any) error {
	f.events = append(f.events, v.(contracts.BoardEvent))
	return f.err
}

func newDisplay(loc *fakeLocation, board BoardPublisher) *displayService {
	v, _, _ := newTestView()
	store := stagestate.New[Model](time.Minute)
	svc := NewDisplayService(logger.NewWithWriter("display-test", io.Discard), store, loc, v, board)
	return svc.(*displayService)
}

func TestUserPassLocationForwardsAndSaves(t *testing.T) {
	loc := &fakeLocation{}
	board := &fakeBoard{}
	svc := newDisplay(loc, board)
	env := contracts.NewEnvelope("corr-1", contracts.CallerGateway)
	addr := contracts.Address{Street: "Jungfernstieg", HouseNumber: "1"}

	if err := svc.UserPassLocation(context.Background(), env, addr); err != nil {
		t.Fatalf("UserPassLocation: %v", err)
	}

	if len(loc.addrs) != 1 || loc.addrs[0] != addr || loc.envs[0].CorrelationID != "corr-1" {
		t.Fatalf("forwarded %+v with %+v", loc.addrs, loc.envs)
	}
	rec, ok := svc.store.Get("corr-1")
	if !ok || rec.Address == nil || rec.Address.Street != "Jungfernstieg" {
		t.Fatalf("model = %+v, %v", rec, ok)
	}
	if len(board.events) != 1 || board.events[0].Type != contracts.BoardEventLoading {
		t.Fatalf("events = %+v", board.events)
	}
}

func TestDisplayDeparturesCompletesTraversal(t *testing.T) {
	board := &fakeBoard{}
	svc := newDisplay(&fakeLocation{}, board)
	env := contracts.NewEnvelope("corr-2", contracts.CallerTransit)
	fetched := viewNow.Add(-time.Minute)
	stations := []contracts.Station{{ID: "A", Name: "Rathaus"}}

	_ = svc.UserPassLocation(context.Background(), env, contracts.Address{Street: "Rathausmarkt", HouseNumber: "1"})
	if err := svc.DisplayDepartures(context.Background(), env, stations, &fetched); err != nil {
		t.Fatalf("DisplayDepartures: %v", err)
	}

	if _, ok := svc.store.Get("corr-2"); ok {
		t.Fatal("record should be evicted after display")
	}
	ev, ok := svc.Board()
	if !ok || ev.Type != contracts.BoardEventUpdate || len(ev.Stations) != 1 || !ev.FetchedAt.Equal(fetched) {
		t.Fatalf("board = %+v, %v", ev, ok)
	}
	if ev.Address == nil || ev.Address.Street != "Rathausmarkt" {
		t.Fatalf("board address = %+v", ev.Address)
	}
	if len(board.events) != 2 || board.events[1].Type != contracts.BoardEventUpdate {
		t.Fatalf("events = %+v", board.events)
	}
}

func TestDisplayDeparturesEmptyListRenders(t *testing.T) {
	svc := newDisplay(&fakeLocation{}, nil)
	env := contracts.NewEnvelope("corr-3", contracts.CallerTransit)

	if err := svc.DisplayDepartures(context.Background(), env, []contracts.Station{}, nil); err != nil {
		t.Fatalf("DisplayDepartures: %v", err)
	}
	ev, _ := svc.Board()
	if ev.Type != contracts.BoardEventUpdate || len(ev.Stations) != 0 {
		t.Fatalf("board = %+v", ev)
	}
}

func TestDisplayDeparturesNil(t *testing.T) {
	svc := newDisplay(&fakeLocation{}, nil)
	err := svc.DisplayDepartures(context.Background(), contracts.NewEnvelope("", contracts.CallerTransit), nil, nil)
	if !errors.Is(err, ErrNoStations) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := svc.Board(); ok {
		t.Fatal("nothing should be stored")
	}
}

func TestBroadcastFailureIsSwallowed(t *testing.T) {
	svc := newDisplay(&fakeLocation{}, &fakeBoard{err: errors.New("closed")})
	env := contracts.NewEnvelope("corr-4", contracts.CallerTransit)
	if err := svc.DisplayDepartures(context.Background(), env, []contracts.Station{{ID: "A"}}, nil); err != nil {
		t.Fatalf("DisplayDepartures: %v", err)
	}
}

func TestBoardBeforeAnyTraversal(t *testing.T) {
	svc := newDisplay(&fakeLocation{}, nil)
	if _, ok := svc.Board(); ok {
		t.Fatal("Board() should report nothing yet")
	}
}
