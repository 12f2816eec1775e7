package contracts

// Service names used in RPC routes and AMQP queues.
const (
	ServiceGateway  = "gateway"
	ServiceDisplay  = "display"
	ServiceLocation = "location"
	ServiceTransit  = "transit"
)

// RPC methods
const (
	MethodSubmitAddressText     = "SubmitAddressText"
	MethodShowDepartures        = "ShowDepartures"
	MethodSubmitAddress         = "SubmitAddress"
	MethodSubmitCoordinates     = "SubmitCoordinates"
	MethodGeocode               = "Geocode"
	MethodNearbyStations        = "NearbyStations"
	MethodDeparturesForStations = "DeparturesForStations"
)

// Caller names stamped into envelopes.
const (
	CallerGateway  = "Externalrest"
	CallerDisplay  = "Displaymanager"
	CallerLocation = "Locationhandler"
	CallerTransit  = "Transportplan"
)

// Provider sources reported in ResultMeta.
const (
	SourceNominatim = "Nominatim/OpenStreetMap"
	SourceGeofox    = "Geofox/HVV"
)

// RPCQueue returns the AMQP request queue of a service, e.g. "rpc.transit".
func RPCQueue(service string) string {
	return "rpc." + service
}
