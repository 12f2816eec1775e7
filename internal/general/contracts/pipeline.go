package contracts

import "time"

// AddressTextRequest carries the raw user input into the display stage.
// Address is nil when the caller sent no address at all.
type AddressTextRequest struct {
	Address *string `json:"address"`
	Envelope
}

// AddressRequest hands a parsed address to the location stage.
type AddressRequest struct {
	Address *Address `json:"address"`
	Envelope
}

// CoordinatesRequest hands geocoded coordinates to the transit stage.
type CoordinatesRequest struct {
	Coordinates *Coordinates `json:"coordinates"`
	Envelope
}

// ShowDeparturesRequest delivers the final station list to the display stage.
// A nil Stations slice means the list was absent; an empty slice means "no data".
type ShowDeparturesRequest struct {
	Stations      []Station  `json:"stations"`
	DataFetchedAt *time.Time `json:"data_fetched_at,omitempty"`
	Envelope
}
