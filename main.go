package main

import (
	"context"
	"fmt"
	"os"

	displayservice "nearest-departures/cmd/display_service"
	gatewayservice "nearest-departures/cmd/gateway_service"
	locationservice "nearest-departures/cmd/location_service"
	transitservice "nearest-departures/cmd/transit_service"
	"nearest-departures/internal/cli"
)

func main() {
	root := cli.NewRootCommand(
		cli.Service{Name: "gateway", Aliases: []string{"externalrest", "g"}, Short: "Public HTTP API and provider proxy (Nominatim, Geofox)", Run: gatewayservice.Run},
		cli.Service{Name: "display", Aliases: []string{"displaymanager", "d"}, Short: "Takes address input and renders the departure board", Run: displayservice.Run},
		cli.Service{Name: "location", Aliases: []string{"locationhandler", "l"}, Short: "Geocodes addresses", Run: locationservice.Run},
		cli.Service{Name: "transit", Aliases: []string{"transportplan", "t"}, Short: "Finds the nearest stations and their departures", Run: transitservice.Run},
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
