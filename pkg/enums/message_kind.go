package enums

import "fmt"

// MessageKind classifies inbox messages delivered to a user.
type MessageKind string

const (
	MessageKindNotification MessageKind = "notification"
	MessageKindCode         MessageKind = "code"
	MessageKindOrder        MessageKind = "order"
)

var validMessageKinds = []MessageKind{
	MessageKindNotification,
	MessageKindCode,
	MessageKindOrder,
}

// String implements fmt.Stringer.
func (m MessageKind) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MessageKind.
func (m MessageKind) IsValid() bool {
	for _, candidate := range validMessageKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMessageKind converts raw input into a MessageKind.
func ParseMessageKind(value string) (MessageKind, error) {
	for _, candidate := range validMessageKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid message kind %q", value)
}
