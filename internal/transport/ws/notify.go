package ws

import "github.com/fluent-freelance/messaging-service/internal/domain"

// NotifyMessage delivers a persisted message twice: roomType to the room
// excluding the sender (isOwn=false) and confirmType back to the sender
// (isOwn=true). The sender's socket must never receive the incoming framing
// of its own message.
//
// Shared between the live session handlers and the REST interview endpoint,
// which attempts the same room broadcast for whoever happens to be
// connected.
func (e *Engine) NotifyMessage(roomType, confirmType string, msg *domain.Message) {
	e.Broadcast(
		Frame{Type: roomType, Payload: toMessageItem(msg, false)},
		RoomScope(msg.ConversationID, msg.SenderEmail),
	)
	e.Broadcast(
		Frame{Type: confirmType, Payload: toMessageItem(msg, true)},
		UsersScope([]string{msg.SenderEmail}, ""),
	)
}
