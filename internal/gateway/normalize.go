package gateway

import (
	"strings"
	"time"
)

const (
	unknownContactName = "Unknown contact"
	unsupportedContent = "[unsupported content]"
)

var (
	contactListKeys = []string{"contacts", "chats"}
	messageListKeys = []string{"messages"}
)

// locateArray finds the list inside a list-shaped response: the root
// itself, then "data", then the operation keys, then the first array-valued
// key of the body in key order. Only when the body holds no array at all is
// a "data" or operation key holding an object searched the same way. The
// first array found wins.
func locateArray(body any, opKeys []string) ([]any, bool) {
	return locateArrayDepth(body, opKeys, 1)
}

func locateArrayDepth(body any, opKeys []string, depth int) ([]any, bool) {
	if arr, ok := body.([]any); ok {
		return arr, true
	}
	m, ok := asMap(body)
	if !ok {
		return nil, false
	}
	wrappers := append([]string{"data"}, opKeys...)
	for _, k := range wrappers {
		if arr, ok := m[k].([]any); ok {
			return arr, true
		}
	}
	for _, k := range sortedKeys(m) {
		if arr, ok := m[k].([]any); ok {
			return arr, true
		}
	}
	if depth > 0 {
		for _, k := range wrappers {
			if inner, ok := asMap(m[k]); ok {
				if arr, ok := locateArrayDepth(inner, opKeys, depth-1); ok {
					return arr, true
				}
			}
		}
	}
	return nil, false
}

func recognizeContacts(body any) bool {
	_, ok := locateArray(body, contactListKeys)
	return ok
}

func recognizeMessages(body any) bool {
	_, ok := locateArray(body, messageListKeys)
	return ok
}

func recognizeSend(body any) bool {
	if sendMessageID(body) != "" {
		return true
	}
	ok, found := pickBool(body, "success", "sent")
	return found && ok
}

func recognizeStatus(body any) bool {
	m, ok := asMap(body)
	if !ok {
		return false
	}
	return hasAnyKey(m, statusKeys...)
}

// recognizeDisconnect accepts an empty body (204) or a JSON object. Pages
// served by a proxy or an SPA in front of the provider are rejected.
func recognizeDisconnect(body any) bool {
	if body == nil {
		return true
	}
	_, ok := asMap(body)
	return ok
}

// NormalizeContacts maps a list-contacts response to contacts in input
// order. Items without any identifier are dropped.
func NormalizeContacts(body any, now time.Time) []Contact {
	items, _ := locateArray(body, contactListKeys)
	out := make([]Contact, 0, len(items))
	for _, item := range items {
		if c, ok := normalizeContact(item); ok {
			out = append(out, c)
		}
	}
	return out
}

func normalizeContact(item any) (Contact, bool) {
	var id string
	if s, ok := item.(string); ok {
		id = strings.TrimSpace(s)
	} else {
		id = pickString(item, "remoteJid", "jid", "wa_chatid", "chatid", "chatId", "id._serialized", "id", "wa_id", "number", "phone")
	}
	if id == "" {
		return Contact{}, false
	}

	c := Contact{ID: id, PhoneNumber: phoneFromID(id)}
	if c.PhoneNumber == "" {
		c.PhoneNumber = digits(pickString(item, "phone", "number", "wa_id"))
	}

	c.DisplayName = pickString(item, "name", "pushName", "wa_contactName", "wa_name", "verifiedName", "notify", "subject", "shortName", "formattedName")
	if c.DisplayName == "" {
		c.DisplayName = c.PhoneNumber
	}
	if c.DisplayName == "" {
		c.DisplayName = unknownContactName
	}

	c.AvatarURL = pickString(item, "profilePicUrl", "profilePictureUrl", "profilePicture", "avatarUrl", "avatar", "image", "imagePreview")

	if last, ok := lookup(item, "lastMessage"); ok {
		if s, isString := last.(string); isString {
			c.LastMessagePreview = strings.TrimSpace(s)
		} else if text, ok := extractText(last); ok {
			c.LastMessagePreview = text
		}
	}
	if c.LastMessagePreview == "" {
		c.LastMessagePreview = pickString(item, "lastMessageText", "lastMessagePreview", "wa_lastMessageTextVote")
	}
	if t, ok := pickTime(item, "lastMessageAt", "wa_lastMsgTimestamp", "conversationTimestamp", "lastMessage.messageTimestamp", "updatedAt", "timestamp", "t"); ok {
		c.LastMessageAt = &t
	}

	c.UnreadCount, _ = pickInt(item, "unreadCount", "unreadMessages", "wa_unreadCount", "unread")
	if c.UnreadCount < 0 {
		c.UnreadCount = 0
	}

	if g, ok := pickBool(item, "isGroup", "wa_isGroup", "is_group", "group"); ok {
		c.IsGroup = g
	} else {
		c.IsGroup = strings.HasSuffix(id, "@g.us")
	}
	return c, true
}

// NormalizeMessages maps a list-messages response to messages in input
// order. Timestamps that cannot be resolved fall back to now.
func NormalizeMessages(body any, now time.Time) []Message {
	items, _ := locateArray(body, messageListKeys)
	out := make([]Message, 0, len(items))
	for _, item := range items {
		out = append(out, normalizeMessage(item, now))
	}
	return out
}

func normalizeMessage(item any, now time.Time) Message {
	m := Message{
		ID:        pickString(item, "key.id", "id._serialized", "id", "messageid", "messageId", "_id"),
		Direction: DirectionInbound,
		Body:      messageBody(item),
		Timestamp: now.UTC(),
		Status:    StatusUnknown,
	}
	if outbound, ok := pickBool(item, "key.fromMe", "fromMe", "from_me", "id.fromMe", "isOutgoing"); ok {
		if outbound {
			m.Direction = DirectionOutbound
		}
	} else {
		switch lower(pickString(item, "direction")) {
		case "outbound", "outgoing", "out", "sent":
			m.Direction = DirectionOutbound
		}
	}
	if t, ok := pickTime(item, "messageTimestamp", "timestamp", "t", "createdAt", "created_at", "date"); ok {
		m.Timestamp = t
	}
	if raw, ok := lookup(item, "status"); ok {
		m.Status = parseMessageStatus(raw)
	} else if raw, ok := lookup(item, "ack"); ok {
		m.Status = parseMessageStatus(raw)
	} else if raw, ok := lookup(item, "MessageUpdate.0.status"); ok {
		m.Status = parseMessageStatus(raw)
	}
	return m
}

// parseMessageStatus understands provider status names and numeric acks
// (0 pending, 1 sent, 2 delivered, 3 read, 4 played).
func parseMessageStatus(v any) MessageStatus {
	if f, ok := toFloat(v); ok {
		switch int(f) {
		case 0:
			return StatusPending
		case 1:
			return StatusSent
		case 2:
			return StatusDelivered
		case 3, 4:
			return StatusRead
		}
		return StatusUnknown
	}
	s, _ := v.(string)
	switch strings.ReplaceAll(lower(s), "-", "_") {
	case "pending", "queued", "sending":
		return StatusPending
	case "sent", "server_ack", "server":
		return StatusSent
	case "delivered", "delivery_ack", "received":
		return StatusDelivered
	case "read", "played", "read_ack", "seen":
		return StatusRead
	}
	return StatusUnknown
}

// mediaKinds is the fixed probe order for media payloads.
var mediaKinds = []string{"image", "video", "audio", "document", "sticker", "location", "contact"}

// messageBody always returns a non-empty body.
func messageBody(item any) string {
	if text, ok := extractText(item); ok {
		return text
	}
	return unsupportedContent
}

// extractText walks the content shapes in priority order: plain string body,
// nested text content, media caption or type marker. It reports false when
// nothing was recognized.
func extractText(item any) (string, bool) {
	if s, ok := item.(string); ok {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	m, ok := asMap(item)
	if !ok {
		return "", false
	}

	for _, k := range []string{"body", "text", "content", "message"} {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}

	if s := pickString(m,
		"message.conversation",
		"message.extendedTextMessage.text",
		"conversation",
		"extendedTextMessage.text",
		"text.body",
		"content.text",
		"message.text",
	); s != "" {
		return s, true
	}

	for _, kind := range mediaKinds {
		for _, path := range []string{"message." + kind + "Message", kind + "Message", kind} {
			media, ok := lookup(m, path)
			if !ok {
				continue
			}
			if _, isObject := asMap(media); !isObject {
				continue
			}
			if caption := pickString(media, "caption"); caption != "" {
				return caption, true
			}
			return "[" + kind + "]", true
		}
	}

	if kind := mediaKindFromType(pickString(m, "messageType", "type")); kind != "" {
		return "[" + kind + "]", true
	}
	return "", false
}

// mediaKindFromType maps type names like "imageMessage", "ImageMessage",
// "ptt" or "image" to a media kind.
func mediaKindFromType(t string) string {
	t = strings.TrimSuffix(lower(t), "message")
	switch t {
	case "ptt", "voice":
		return "audio"
	case "contactsarray", "vcard":
		return "contact"
	case "livelocation":
		return "location"
	}
	for _, kind := range mediaKinds {
		if t == kind {
			return kind
		}
	}
	return ""
}

func sendMessageID(body any) string {
	return pickString(body, "key.id", "messageid", "messageId", "id", "messages.0.id", "data.key.id", "data.id", "message.id")
}

// NormalizeSend extracts the upstream message id and send time.
func NormalizeSend(body any, now time.Time) SendResult {
	r := SendResult{MessageID: sendMessageID(body), Timestamp: now.UTC()}
	if t, ok := pickTime(body, "messageTimestamp", "timestamp", "data.messageTimestamp", "t"); ok {
		r.Timestamp = t
	}
	return r
}
