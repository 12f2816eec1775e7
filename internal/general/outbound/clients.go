package outbound

import (
	"context"
	"time"

	"nearest-departures/internal/general/contracts"
)

// DisplayClient forwards user text to the display stage (gateway -> display).
type DisplayClient struct{ f *Forwarder }

func NewDisplayClient(f *Forwarder) *DisplayClient { return &DisplayClient{f: f} }

func (c *DisplayClient) SubmitAddressText(ctx context.Context, env contracts.Envelope, text string) {
	c.f.Send(ctx, contracts.MethodSubmitAddressText, contracts.AddressTextRequest{
		Address:  &text,
		Envelope: env.Forward(c.f.Caller()),
	})
}

// LocationClient forwards a parsed address (display -> location).
type LocationClient struct{ f *Forwarder }

func NewLocationClient(f *Forwarder) *LocationClient { return &LocationClient{f: f} }

func (c *LocationClient) SubmitAddress(ctx context.Context, env contracts.Envelope, addr contracts.Address) {
	c.f.Send(ctx, contracts.MethodSubmitAddress, contracts.AddressRequest{
		Address:  &addr,
		Envelope: env.Forward(c.f.Caller()),
	})
}

// TransitClient forwards coordinates (location -> transit).
type TransitClient struct{ f *Forwarder }

func NewTransitClient(f *Forwarder) *TransitClient { return &TransitClient{f: f} }

func (c *TransitClient) SubmitCoordinates(ctx context.Context, env contracts.Envelope, coords contracts.Coordinates) {
	c.f.Send(ctx, contracts.MethodSubmitCoordinates, contracts.CoordinatesRequest{
		Coordinates: &coords,
		Envelope:    env.Forward(c.f.Caller()),
	})
}

// DeparturesClient forwards the final stations (transit -> display).
type DeparturesClient struct{ f *Forwarder }

func NewDeparturesClient(f *Forwarder) *DeparturesClient { return &DeparturesClient{f: f} }

// ShowDepartures always sends a non-nil list so an empty result is never mistaken for an absent one.
func (c *DeparturesClient) ShowDepartures(ctx context.Context, env contracts.Envelope, stations []contracts.Station, fetchedAt *time.Time) {
	if stations == nil {
		stations = []contracts.Station{}
	}
	c.f.Send(ctx, contracts.MethodShowDepartures, contracts.ShowDeparturesRequest{
		Stations:      stations,
		DataFetchedAt: fetchedAt,
		Envelope:      env.Forward(c.f.Caller()),
	})
}
