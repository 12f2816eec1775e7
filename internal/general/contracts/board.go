package contracts

import "time"

// BoardEvent mirrors the message pushed to departure board WebSocket clients.
type BoardEvent struct {
	Type      string     `json:"type"` // "board_update" | "board_loading"
	Address   *Address   `json:"address,omitempty"`
	Stations  []Station  `json:"stations,omitempty"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Envelope
}

// Board event types
const (
	BoardEventUpdate  = "board_update"
	BoardEventLoading = "board_loading"
)
