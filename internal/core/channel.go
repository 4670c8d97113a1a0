package core

import "strconv"

// ChannelKind distinguishes the two broadcast domains.
type ChannelKind int

const (
	// ChannelRoom is a public room addressed by a free-form name.
	ChannelRoom ChannelKind = iota
	// ChannelConversation is a private chat addressed by conversation id.
	ChannelConversation
)

// ChannelID identifies one broadcast domain.
type ChannelID struct {
	Kind         ChannelKind
	Room         string
	Conversation int64
}

// RoomChannel builds the channel id for a public room.
func RoomChannel(name string) ChannelID {
	return ChannelID{Kind: ChannelRoom, Room: name}
}

// ConversationChannel builds the channel id for a private conversation.
func ConversationChannel(id int64) ChannelID {
	return ChannelID{Kind: ChannelConversation, Conversation: id}
}

// Key returns the registry map key. Room and conversation namespaces never
// collide, even when a room is named like a number.
func (c ChannelID) Key() string {
	if c.Kind == ChannelConversation {
		return "chat:" + strconv.FormatInt(c.Conversation, 10)
	}
	return "room:" + c.Room
}

func (c ChannelID) String() string {
	return c.Key()
}
