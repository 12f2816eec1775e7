package service

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"nearest-departures/internal/general/contracts"
)

var viewNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestView() (*View, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &View{out: &out, errOut: &errOut, loc: time.UTC, now: func() time.Time { return viewNow }}, &out, &errOut
}

func TestMinutesUntil(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{-2 * time.Minute, "departed"},
		{-30 * time.Second, "now"},
		{0, "now"},
		{59 * time.Second, "now"},
		{time.Minute, "1 min"},
		{90 * time.Second, "1 min"},
		{12 * time.Minute, "12 min"},
		{59 * time.Minute, "59 min"},
		{60 * time.Minute, "1h 00m"},
		{125 * time.Minute, "2h 05m"},
	}
	for _, tc := range cases {
		if got := minutesUntil(viewNow, viewNow.Add(tc.in)); got != tc.want {
			t.Errorf("minutesUntil(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("U1 Norderstedt", 20); got != "U1 Norderstedt" {
		t.Fatalf("short = %q", got)
	}
	if got := truncate("U1 Norderstedt Mitte via Ohlsdorf", 20); got != "U1 Norderstedt Mi..." {
		t.Fatalf("long = %q", got)
	}
	if got := truncate("Überseequartier Überseequartier", 10); got != "Übersee..." {
		t.Fatalf("runes = %q", got)
	}
}

func TestShowDepartures(t *testing.T) {
	v, out, errOut := newTestView()
	fetched := time.Date(2026, 3, 1, 11, 59, 30, 0, time.UTC)

	v.ShowDepartures([]contracts.Station{
		{ID: "A", Name: "Jungfernstieg", Departures: []contracts.Departure{
			{LineName: "U2 Niendorf Nord", DepartureTime: viewNow.Add(3 * time.Minute)},
			{LineName: "S1 Wedel", DepartureTime: viewNow.Add(75 * time.Minute)},
		}},
		{ID: "B", Name: "Rathaus"},
	}, &fetched)

	text := out.String()
	for _, want := range []string{
		"DEPARTURE MONITOR",
		fmt.Sprintf(rowFormat, "LINE", "IN", "TIME", "STOP"),
		fmt.Sprintf(rowFormat, "U2 Niendorf Nord", "3 min", "12:03", "Jungfernstieg"),
		fmt.Sprintf(rowFormat, "S1 Wedel", "1h 15m", "13:15", "Jungfernstieg"),
		fmt.Sprintf(rowFormat, "-", "-", "-", "Rathaus"),
		"Total: 2 departures from 2 stations",
		"Last data update: 01.03.2026 11:59:30",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("board misses %q\n%s", want, text)
		}
	}
	if errOut.Len() != 0 {
		t.Fatalf("unexpected error output %q", errOut.String())
	}
}

func TestShowDeparturesFooterDefaultsToNow(t *testing.T) {
	v, out, _ := newTestView()
	v.ShowDepartures([]contracts.Station{{Name: "Rathaus"}}, nil)
	if !strings.Contains(out.String(), "Last data update: 01.03.2026 12:00:00") {
		t.Fatalf("footer missing:\n%s", out.String())
	}
}

func TestShowDeparturesEmpty(t *testing.T) {
	v, out, errOut := newTestView()
	v.ShowDepartures([]contracts.Station{}, nil)

	if !strings.Contains(errOut.String(), "ERROR: No departures found") {
		t.Fatalf("error block missing: %q", errOut.String())
	}
	if strings.Contains(out.String(), "Total:") {
		t.Fatalf("empty board printed rows:\n%s", out.String())
	}
}

func TestShowLoading(t *testing.T) {
	v, out, _ := newTestView()
	v.ShowLoading(contracts.Address{Street: "Jungfernstieg", HouseNumber: "1"})
	if !strings.Contains(out.String(), "[MONITOR] Searching departures near: Jungfernstieg 1") {
		t.Fatalf("loading = %q", out.String())
	}
}
