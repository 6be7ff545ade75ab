package gateway

import "time"

// Operation names one logical provider call.
type Operation string

const (
	OpListContacts     Operation = "list_contacts"
	OpListMessages     Operation = "list_messages"
	OpSendMessage      Operation = "send_message"
	OpConnectionStatus Operation = "connection_status"
	OpDisconnect       Operation = "disconnect"
)

// Operations lists every operation in the order the facade exposes them.
var Operations = []Operation{OpListContacts, OpListMessages, OpSendMessage, OpConnectionStatus, OpDisconnect}

// Contact is a chat peer as reported by the provider.
type Contact struct {
	ID                 string     `json:"id"`
	DisplayName        string     `json:"displayName"`
	PhoneNumber        string     `json:"phoneNumber"`
	AvatarURL          string     `json:"avatarUrl,omitempty"`
	LastMessagePreview string     `json:"lastMessagePreview,omitempty"`
	LastMessageAt      *time.Time `json:"lastMessageAt,omitempty"`
	UnreadCount        int        `json:"unreadCount"`
	IsGroup            bool       `json:"isGroup"`
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusUnknown   MessageStatus = "unknown"
)

// Message is one entry of a chat history.
type Message struct {
	ID        string        `json:"id"`
	Direction Direction     `json:"direction"`
	Body      string        `json:"body"`
	Timestamp time.Time     `json:"timestamp"`
	Status    MessageStatus `json:"status"`
}

type State string

const (
	StateUnknown      State = "unknown"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateError        State = "error"
)

// ConnectionStatus describes the provider session. QRCode is only set while
// the session is not connected.
type ConnectionStatus struct {
	State  State  `json:"state"`
	QRCode string `json:"qrCode,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder accepts "asc" or "desc" in any case and defaults to desc.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(lower(s)) {
	case SortAsc:
		return SortAsc
	default:
		return SortDesc
	}
}

// ContactsResult is returned by ListContacts. Callers must check IsDegraded
// before treating Contacts as authoritative.
type ContactsResult struct {
	Contacts    []Contact `json:"contacts"`
	IsDegraded  bool      `json:"isDegraded"`
	Diagnostics []Failure `json:"diagnostics,omitempty"`
}

// MessagesResult is returned by ListMessages. Callers must check IsDegraded
// before treating Messages as authoritative.
type MessagesResult struct {
	Messages    []Message `json:"messages"`
	IsDegraded  bool      `json:"isDegraded"`
	Diagnostics []Failure `json:"diagnostics,omitempty"`
}

type SendResult struct {
	MessageID string    `json:"messageId"`
	Timestamp time.Time `json:"timestamp"`
}

type DisconnectResult struct {
	Success bool `json:"success"`
}
