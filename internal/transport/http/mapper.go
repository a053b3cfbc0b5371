package http

import (
	"encoding/json"
	"time"

	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
)

const timestampLayout = time.RFC3339Nano

func decodeRoom(inbound proto.Inbound) (int64, *proto.Error) {
	var data proto.RoomData
	if err := json.Unmarshal(inbound.Data, &data); err != nil {
		return 0, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid payload"}
	}
	if data.RoomID <= 0 {
		return 0, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room_id is required"}
	}
	return data.RoomID, nil
}

func decodeMsg(inbound proto.Inbound) (*proto.MsgData, *proto.Error) {
	var data proto.MsgData
	if err := json.Unmarshal(inbound.Data, &data); err != nil {
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid payload"}
	}
	if data.RoomID == nil && data.ReceiverID == nil {
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room_id or receiver_id is required"}
	}
	return &data, nil
}

func messageView(m core.ChatMessage) proto.EventMessage {
	return proto.EventMessage{
		ID:             m.ID,
		SenderID:       m.SenderID,
		SenderUsername: m.SenderUsername,
		RoomID:         m.RoomID,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
		Timestamp:      m.Timestamp.UTC().Format(timestampLayout),
	}
}

func errorOutbound(code, msg string) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: code, Msg: msg},
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessage,
			Data:  messageView(*event.Message),
		}
	case core.EventPresence:
		p := event.Presence
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNamePresence,
			Data: proto.EventPresence{
				UserID: p.UserID,
				Online: p.Online,
				Seq:    p.Seq,
				At:     p.At.UTC().Format(timestampLayout),
			},
		}
	case core.EventJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameJoined,
			Data:  proto.EventRoom{RoomID: event.RoomID},
		}
	case core.EventLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameLeft,
			Data:  proto.EventRoom{RoomID: event.RoomID},
		}
	case core.EventWelcome:
		w := event.Welcome
		online := w.OnlineUsers
		if online == nil {
			online = []int64{}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameWelcome,
			Data: proto.EventWelcome{
				SessionID:     w.SessionID,
				Authenticated: w.UserID > 0,
				UserID:        w.UserID,
				Username:      w.Username,
				OnlineUsers:   online,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return errorOutbound(core.ErrCodeInternal, "unknown error")
		}
		return errorOutbound(event.Error.Code, event.Error.Message)
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
