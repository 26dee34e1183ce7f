package protocol

import "encoding/json"

const Version = "rs.v1"

// Message types.
const (
	TypeHello    = "HELLO"
	TypeWelcome  = "WELCOME"
	TypeSolve    = "SOLVE"
	TypeProgress = "PROGRESS"
	TypeResult   = "RESULT"
	TypeError    = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	ReqID           string `json:"req_id,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
