package http

import (
	"encoding/json"

	"github.com/chatlink/chatlink-server/internal/chat"
	"github.com/chatlink/chatlink-server/internal/proto"
)

// inboundToEvent decodes a protocol envelope into the core's inbound event.
// A malformed payload yields a protocol error for the sending connection; an
// unrecognized type maps to InboundUnknown, which the dispatcher ignores.
func inboundToEvent(inbound proto.Inbound) (chat.Inbound, *proto.Error) {
	malformed := &proto.Error{Code: chat.ErrCodeMalformedInput, Msg: "invalid payload"}

	switch inbound.Type {
	case proto.InboundTypeJoinRoom:
		var data proto.RoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return chat.Inbound{}, malformed
		}
		return chat.Inbound{Kind: chat.InboundJoinRoom, RoomID: data.RoomID}, nil

	case proto.InboundTypeLeaveRoom:
		var data proto.RoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return chat.Inbound{}, malformed
		}
		return chat.Inbound{Kind: chat.InboundLeaveRoom, RoomID: data.RoomID}, nil

	case proto.InboundTypeTyping:
		var data proto.TypingData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return chat.Inbound{}, malformed
		}
		return chat.Inbound{Kind: chat.InboundTyping, RoomID: data.RoomID, IsTyping: data.IsTyping}, nil

	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return chat.Inbound{}, malformed
		}
		return chat.Inbound{
			Kind:      chat.InboundSendMessage,
			RoomID:    data.RoomID,
			Body:      data.Content,
			ReplyToID: data.ReplyToMessageID,
		}, nil

	case proto.InboundTypeReadReceipt:
		var data proto.ReadReceiptData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return chat.Inbound{}, malformed
		}
		return chat.Inbound{Kind: chat.InboundReadReceipt, RoomID: data.RoomID, MessageID: data.MessageID}, nil

	default:
		return chat.Inbound{Kind: chat.InboundUnknown}, nil
	}
}

// outboundFromEvent converts a core event into its wire envelope.
func outboundFromEvent(event *chat.Event) proto.Outbound {
	switch event.Kind {
	case chat.EventNewMessage, chat.EventAck:
		outType := proto.OutboundTypeNewMessage
		if event.Kind == chat.EventAck {
			outType = proto.OutboundTypeAck
		}
		return proto.Outbound{
			Type: outType,
			Data: proto.MessagePayload{
				MessageID:        event.Message.ID,
				RoomID:           event.Message.RoomID,
				SenderID:         event.Message.SenderID,
				Content:          event.Message.Body,
				ReplyToMessageID: event.Message.ReplyToID,
				CreatedAt:        event.Message.CreatedAt.Unix(),
			},
		}

	case chat.EventMessageStatus:
		return proto.Outbound{
			Type: proto.OutboundTypeMessageStatus,
			Data: proto.MessageStatusPayload{
				MessageID: event.MessageID,
				RoomID:    event.RoomID,
				UserID:    event.UserID,
				Status:    event.Status,
				TS:        event.At.Unix(),
			},
		}

	case chat.EventTyping:
		return proto.Outbound{
			Type: proto.OutboundTypeTyping,
			Data: proto.TypingPayload{
				RoomID:   event.RoomID,
				UserID:   event.UserID,
				IsTyping: event.IsTyping,
				TS:       event.At.Unix(),
			},
		}

	case chat.EventPresenceChange:
		return proto.Outbound{
			Type: proto.OutboundTypePresenceChange,
			Data: proto.PresencePayload{
				UserID: event.UserID,
				Status: event.Status,
				TS:     event.At.Unix(),
			},
		}

	case chat.EventError:
		if event.Err == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Err.Code, Msg: event.Err.Message},
		}

	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unhandled event kind"}}
	}
}
