package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status       string          `json:"status"` // "healthy" or "idle"
	Connections  ConnectionStats `json:"connections"`
	Rooms        RoomStats       `json:"rooms"`
	TypingTimers int             `json:"typingTimers"` // armed typing expiry timers
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalConnections int `json:"totalConnections"` // live websocket connections
	TotalIdentities  int `json:"totalIdentities"`  // distinct online users
}

// RoomStats holds room statistics
type RoomStats struct {
	TotalRooms  int        `json:"totalRooms"`
	RoomDetails []RoomInfo `json:"roomDetails"`
}

// RoomInfo contains information about a single room
type RoomInfo struct {
	RoomID      string `json:"roomId"`
	MemberCount int    `json:"memberCount"` // connections currently joined
}
