package contracts

// GeocodeRequest asks the gateway to resolve an address.
type GeocodeRequest struct {
	Address Address `json:"address"`
	Envelope
}

// GeocodeResponse is the successful geocoding result.
type GeocodeResponse struct {
	Coordinates Coordinates `json:"coordinates"`
	ResultMeta  ResultMeta  `json:"result_meta"`
}

// NearbyStationsRequest asks for stations around a point.
type NearbyStationsRequest struct {
	Coordinates Coordinates `json:"coordinates"`
	MaxStations int         `json:"max_stations"`
	Envelope
}

// DeparturesRequest asks for departures of the given stations.
type DeparturesRequest struct {
	Stations []Station `json:"stations"`
	Envelope
}

// StationsResponse is returned by both station lookups.
type StationsResponse struct {
	Stations   []Station  `json:"stations"`
	ResultMeta ResultMeta `json:"result_meta"`
}
