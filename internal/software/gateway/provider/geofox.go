package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"nearest-departures/internal/general/contracts"
)

const (
	geofoxVersion      = 63
	maxDistanceMeters  = 1000
	departuresMaxList  = 30
	departuresMaxDelay = 200 // minutes
	unknownLine        = "Unbekannt"
)

// Geofox queries the HVV GTI API (Hamburg). Every request body is signed with
// HMAC-SHA1 using the account password.
type Geofox struct {
	baseURL  string
	user     string
	password string
	client   *http.Client
	now      func() time.Time

	lastInteraction atomic.Pointer[time.Time]
}

// NewGeofox creates a Geofox client.
func NewGeofox(baseURL, user, password string, timeout time.Duration) *Geofox {
	return &Geofox{
		baseURL:  trimBase(baseURL),
		user:     user,
		password: password,
		client:   newHTTPClient(timeout),
		now:      time.Now,
	}
}

// LastInteraction is the time of the last successful exchange.
func (g *Geofox) LastInteraction() (time.Time, bool) {
	t := g.lastInteraction.Load()
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}

// ----- wire types -----

type gfCoordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type gfName struct {
	Type       string        `json:"type"`
	Coordinate *gfCoordinate `json:"coordinate,omitempty"`
	ID         string        `json:"id,omitempty"`
	Name       string        `json:"name,omitempty"`
}

type checkNameRequest struct {
	Version         int    `json:"version"`
	TheName         gfName `json:"theName"`
	MaxDistance     int    `json:"maxDistance"`
	MaxList         int    `json:"maxList"`
	CoordinateType  string `json:"coordinateType"`
	AllowTypeSwitch bool   `json:"allowTypeSwitch"`
}

type checkNameResponse struct {
	Results []struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		Distance float64 `json:"distance"`
	} `json:"results"`
}

type gfTime struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type departureListRequest struct {
	Version       int      `json:"version"`
	Stations      []gfName `json:"stations"`
	Time          gfTime   `json:"time"`
	MaxList       int      `json:"maxList"`
	MaxTimeOffset int      `json:"maxTimeOffset"`
	UseRealtime   bool     `json:"useRealtime"`
}

type gfLine struct {
	Name      *string `json:"name"`
	Direction string  `json:"direction"`
}

type gfStationID struct {
	ID string `json:"id"`
}

type departureListResponse struct {
	Departures []struct {
		Line       *gfLine      `json:"line"`
		TimeOffset *int         `json:"timeOffset"`
		Station    *gfStationID `json:"station"`
	} `json:"departures"`
}

// NearbyStations returns up to maxStations stations within 1 km of coords, with
// the provider's distances.
func (g *Geofox) NearbyStations(ctx context.Context, coords contracts.Coordinates, maxStations int) ([]contracts.Station, error) {
	req := checkNameRequest{
		Version: geofoxVersion,
		TheName: gfName{
			Type:       "STATION",
			Coordinate: &gfCoordinate{X: coords.Longitude, Y: coords.Latitude},
		},
		MaxDistance:     maxDistanceMeters,
		MaxList:         maxStations,
		CoordinateType:  "EPSG_4326",
		AllowTypeSwitch: false,
	}

	var resp checkNameResponse
	if err := g.send(ctx, "/checkName", req, &resp); err != nil {
		return nil, err
	}

	stations := make([]contracts.Station, 0, len(resp.Results))
	for _, r := range resp.Results {
		stations = append(stations, contracts.Station{ID: r.ID, Name: r.Name, DistanceMeters: r.Distance})
	}
	return stations, nil
}

// Departures fetches departures for stations. The result keeps the input order
// and drops stations without departures.
func (g *Geofox) Departures(ctx context.Context, stations []contracts.Station) ([]contracts.Station, error) {
	now := g.now()
	query := now.Add(time.Minute)

	req := departureListRequest{
		Version:       geofoxVersion,
		Stations:      make([]gfName, 0, len(stations)),
		Time:          gfTime{Date: query.Format("02.01.2006"), Time: query.Format("15:04")},
		MaxList:       departuresMaxList,
		MaxTimeOffset: departuresMaxDelay,
		UseRealtime:   true,
	}

	order := make([]string, 0, len(stations))
	byID := make(map[string]contracts.Station, len(stations))
	for _, s := range stations {
		req.Stations = append(req.Stations, gfName{Type: "STATION", ID: s.ID, Name: s.Name})
		if _, seen := byID[s.ID]; !seen {
			order = append(order, s.ID)
			byID[s.ID] = s
		}
	}

	var resp departureListResponse
	if err := g.send(ctx, "/departureList", req, &resp); err != nil {
		return nil, err
	}

	grouped := make(map[string][]contracts.Departure)
	for _, d := range resp.Departures {
		if d.Station == nil || d.Station.ID == "" {
			continue
		}

		offset := 0
		if d.TimeOffset != nil {
			offset = *d.TimeOffset
		}
		grouped[d.Station.ID] = append(grouped[d.Station.ID], contracts.Departure{
			LineName:      lineName(d.Line),
			DepartureTime: now.Add(time.Duration(offset) * time.Minute),
		})
	}

	result := make([]contracts.Station, 0, len(order))
	for _, id := range order {
		deps := grouped[id]
		if len(deps) == 0 {
			continue
		}
		s := byID[id]
		s.Departures = deps
		result = append(result, s)
	}
	return result, nil
}

// lineName renders "name direction"; the direction is left out when blank.
func lineName(line *gfLine) string {
	if line == nil || line.Name == nil {
		return unknownLine
	}
	if strings.TrimSpace(line.Direction) == "" {
		return *line.Name
	}
	return *line.Name + " " + line.Direction
}

// send posts a signed JSON request and decodes the response into out.
func (g *Geofox) send(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("geofox: encode %s: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("geofox: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Accept", "application/json;charset=UTF-8")
	req.Header.Set("geofox-auth-user", g.user)
	req.Header.Set("geofox-auth-signature", Sign(payload, g.password))
	req.Header.Set("X-Platform", "web")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("geofox %s: %w: %w", endpoint, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("geofox %s: %w: status %d", endpoint, ErrUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("geofox %s: %w: %w", endpoint, ErrUnavailable, err)
	}

	t := g.now().UTC()
	g.lastInteraction.Store(&t)

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("geofox %s: parsing response: %w", endpoint, err)
	}
	return nil
}

// Sign computes the geofox-auth-signature header value for body.
func Sign(body []byte, password string) string {
	mac := hmac.New(sha1.New, []byte(password))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
