package core

// CommandKind is what a connection asks the hub to do.
type CommandKind int

const (
	// CommandSendRoomMessage posts a chat message to a joined room.
	CommandSendRoomMessage CommandKind = iota
	// CommandJoinRoom subscribes the connection to a room and replays its history.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the connection from a room.
	CommandLeaveRoom
)

func (k CommandKind) String() string {
	switch k {
	case CommandSendRoomMessage:
		return "send"
	case CommandJoinRoom:
		return "join"
	case CommandLeaveRoom:
		return "leave"
	default:
		return "unknown"
	}
}

// Command is one request from a connection. Message is only set for sends.
type Command struct {
	Kind    CommandKind
	Room    string
	Message Message
}
