package alarm

// PlaceholderLocation is the literal sent in the location field of chat
// payloads. It is not a real position.
const PlaceholderLocation = "123.456,789.012"

const (
	frameAlert           = "alert"
	frameLocationRequest = "locationRequest"
	frameLocation        = "location"
)

// inboundFrame is the JSON shape of server-pushed events.
type inboundFrame struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// OutboundLocation answers a location request.
type OutboundLocation struct {
	Type      string  `json:"type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ChatMessage is the composer payload. It carries no type tag and gets no
// acknowledgment.
type ChatMessage struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Message  string `json:"message"`
	Location string `json:"location"`
}

// NewChatMessage builds a chat payload with the placeholder location.
func NewChatMessage(userID, username, text string) ChatMessage {
	return ChatMessage{
		UserID:   userID,
		Username: username,
		Message:  text,
		Location: PlaceholderLocation,
	}
}
