package service

// Emitter pushes events to connected participants (avoids import cycle)
type Emitter interface {
	// EmitToSocket sends to a single connection
	EmitToSocket(socketID, event string, payload any)
	// EmitToRole sends to every connection of a session holding role
	EmitToRole(sessionID, role, event string, payload any)
}
