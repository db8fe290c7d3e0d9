package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeJoinRoom    = "join_room"
	InboundTypeLeaveRoom   = "leave_room"
	InboundTypeTyping      = "typing"
	InboundTypeSendMessage = "send_message"
	InboundTypeReadReceipt = "read_receipt"

	OutboundTypeNewMessage     = "new_message"
	OutboundTypeAck            = "ack"
	OutboundTypeMessageStatus  = "message_status"
	OutboundTypeTyping         = "typing"
	OutboundTypePresenceChange = "presence_change"
	OutboundTypeError          = "error"
)

// RoomData targets a room with no extra payload (join_room, leave_room).
type RoomData struct {
	RoomID int64 `json:"room_id"`
}

// TypingData updates the sender's typing indicator.
type TypingData struct {
	RoomID   int64 `json:"room_id"`
	IsTyping bool  `json:"is_typing"`
}

// SendMessageData posts a message to a room.
type SendMessageData struct {
	RoomID           int64  `json:"room_id"`
	Content          string `json:"content"`
	ReplyToMessageID *int64 `json:"reply_to_message_id,omitempty"`
}

// ReadReceiptData reports that the sender read a message.
type ReadReceiptData struct {
	RoomID    int64 `json:"room_id"`
	MessageID int64 `json:"message_id"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// MessagePayload carries a persisted message (new_message and ack).
type MessagePayload struct {
	MessageID        int64  `json:"message_id"`
	RoomID           int64  `json:"room_id"`
	SenderID         int64  `json:"sender_id"`
	Content          string `json:"content"`
	ReplyToMessageID *int64 `json:"reply_to_message_id,omitempty"`
	CreatedAt        int64  `json:"created_at"`
}

// MessageStatusPayload notifies about a message status change.
type MessageStatusPayload struct {
	MessageID int64  `json:"message_id"`
	RoomID    int64  `json:"room_id"`
	UserID    int64  `json:"user_id"`
	Status    string `json:"status"`
	TS        int64  `json:"ts"`
}

// TypingPayload notifies that a user started or stopped typing.
type TypingPayload struct {
	RoomID   int64 `json:"room_id"`
	UserID   int64 `json:"user_id"`
	IsTyping bool  `json:"is_typing"`
	TS       int64 `json:"ts"`
}

// PresencePayload notifies about an online/offline transition.
type PresencePayload struct {
	UserID int64  `json:"user_id"`
	Status string `json:"status"`
	TS     int64  `json:"ts"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
