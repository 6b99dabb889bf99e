package navigator

import (
	"fmt"
	"strconv"
	"strings"
)

// Input is one inbound chat interaction. The concrete types form a closed set that
// the navigator dispatches on with a type switch.
type Input interface {
	inputKind() string
}

// Start resets the chat to the main menu
type Start struct{}

// DeepLink opens a document directly, bypassing the drill-down
type DeepLink struct{ DocumentID uint }

// Browse opens the subject list
type Browse struct{}

// About shows information about the bot
type About struct{}

// Select chooses a child entry of the list currently shown
type Select struct {
	Level Level
	ID    uint
}

// Back returns to the parent menu
type Back struct{}

// ToggleSubscription flips new-document notifications for a course
type ToggleSubscription struct{ CourseID uint }

// Rate submits a 1..5 rating for a document
type Rate struct {
	DocumentID uint
	Value      int
}

// Text is free text typed by the user
type Text struct{ Body string }

// Unknown is a button payload that could not be decoded
type Unknown struct{ Raw string }

func (Start) inputKind() string              { return "start" }
func (DeepLink) inputKind() string           { return "deep_link" }
func (Browse) inputKind() string             { return "browse" }
func (About) inputKind() string              { return "about" }
func (Select) inputKind() string             { return "select" }
func (Back) inputKind() string               { return "back" }
func (ToggleSubscription) inputKind() string { return "toggle_subscription" }
func (Rate) inputKind() string               { return "rate" }
func (Text) inputKind() string               { return "text" }
func (Unknown) inputKind() string            { return "unknown" }

// Encode turns an input into compact button callback data (at most 64 bytes)
func Encode(in Input) string {
	switch v := in.(type) {
	case Start:
		return "start"
	case Browse:
		return "browse"
	case About:
		return "about"
	case Back:
		return "back"
	case DeepLink:
		return fmt.Sprintf("doc:%d", v.DocumentID)
	case Select:
		return fmt.Sprintf("sel:%s:%d", v.Level, v.ID)
	case ToggleSubscription:
		return fmt.Sprintf("sub:%d", v.CourseID)
	case Rate:
		return fmt.Sprintf("rate:%d:%d", v.DocumentID, v.Value)
	default:
		return ""
	}
}

// Decode parses button callback data. Anything unrecognised becomes Unknown.
func Decode(data string) Input {
	parts := strings.Split(data, ":")
	unknown := Unknown{Raw: data}

	switch parts[0] {
	case "start":
		if len(parts) == 1 {
			return Start{}
		}
	case "browse":
		if len(parts) == 1 {
			return Browse{}
		}
	case "about":
		if len(parts) == 1 {
			return About{}
		}
	case "back":
		if len(parts) == 1 {
			return Back{}
		}
	case "doc":
		if len(parts) == 2 {
			if id, ok := parseID(parts[1]); ok {
				return DeepLink{DocumentID: id}
			}
		}
	case "sel":
		if len(parts) == 3 {
			level, okLevel := parseLevel(parts[1])
			id, okID := parseID(parts[2])
			if okLevel && okID {
				return Select{Level: level, ID: id}
			}
		}
	case "sub":
		if len(parts) == 2 {
			if id, ok := parseID(parts[1]); ok {
				return ToggleSubscription{CourseID: id}
			}
		}
	case "rate":
		if len(parts) == 3 {
			id, okID := parseID(parts[1])
			value, err := strconv.Atoi(parts[2])
			if okID && err == nil {
				return Rate{DocumentID: id, Value: value}
			}
		}
	}
	return unknown
}

var deepLinkPrefixes = []string{"document:", "document_", "note_"}

// ParseStartPayload interprets the argument of a start command. A document reference becomes
// a DeepLink (ID 0 when the id part is malformed), anything else a plain Start.
func ParseStartPayload(payload string) Input {
	payload = strings.TrimSpace(payload)
	for _, prefix := range deepLinkPrefixes {
		if rest, ok := strings.CutPrefix(payload, prefix); ok {
			id, _ := parseID(rest)
			return DeepLink{DocumentID: id}
		}
	}
	return Start{}
}

func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
