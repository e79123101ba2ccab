package hub

import (
	"github.com/adnanfazil/ChatApp/internal/model"
)

// MonitorService provides methods to gather hub statistics
type MonitorService struct {
	hub *Hub
}

// NewMonitorService creates a new monitor service
func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats gathers and returns all hub statistics
func (ms *MonitorService) GetStats() model.MonitorResponse {
	connections, identities := ms.hub.registry.totals()
	roomStats := ms.getRoomStats()

	status := "healthy"
	if connections == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status: status,
		Connections: model.ConnectionStats{
			TotalConnections: connections,
			TotalIdentities:  identities,
		},
		Rooms:        roomStats,
		TypingTimers: ms.hub.typing.activeCount(),
	}
}

func (ms *MonitorService) getRoomStats() model.RoomStats {
	stats := model.RoomStats{
		RoomDetails: make([]model.RoomInfo, 0),
	}

	ms.hub.rooms.forEachRoom(func(roomID string, members map[string]*Client) {
		stats.RoomDetails = append(stats.RoomDetails, model.RoomInfo{
			RoomID:      roomID,
			MemberCount: len(members),
		})
		stats.TotalRooms++
	})

	return stats
}
