package gateway

// MessageType identifies a websocket message
type MessageType string

const (
	MessageTypeInit  MessageType = "init"
	MessageTypeStart MessageType = "start"
	MessageTypeTick  MessageType = "tick"
	MessageTypeEnd   MessageType = "end"
)

// InitMessage carries everything the client needs to draw the game
type InitMessage struct {
	Type           MessageType `json:"type"`
	TargetCurve    []float64   `json:"targetCurve"`
	ToleranceCurve []float64   `json:"toleranceCurve"`
	Difficulty     string      `json:"difficulty"`
	Seed           int         `json:"seed"`
	Duration       int         `json:"duration"` // Number of ticks
}

// TickMessage reports one scored tick
type TickMessage struct {
	Type       MessageType `json:"type"`
	TickNumber int         `json:"tickNumber"`
	Actual     float64     `json:"actual"`
	TotalScore float64     `json:"totalScore"`
}

// EndMessage reports the final score
type EndMessage struct {
	Type  MessageType `json:"type"`
	Score float64     `json:"score"`
}

// ClientMessage is any message received from the client. Only the type is
// inspected.
type ClientMessage struct {
	Type MessageType `json:"type"`
}
