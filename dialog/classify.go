package dialog

import (
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// StartKeyword triggers the search flow, both as a text command and as the
// postback payload bound to the "search again" button.
const StartKeyword = "mulai"

// Classify normalizes a raw platform event into an Event. It is total: input
// it cannot recognize maps to KindOther, never an error.
func Classify(raw webhook.EventInterface) Event {
	switch e := raw.(type) {
	case webhook.FollowEvent:
		return Event{Kind: KindJoin, UserID: sourceUserID(e.Source)}
	case *webhook.FollowEvent:
		return Event{Kind: KindJoin, UserID: sourceUserID(e.Source)}
	case webhook.UnfollowEvent:
		return Event{Kind: KindLeave, UserID: sourceUserID(e.Source)}
	case *webhook.UnfollowEvent:
		return Event{Kind: KindLeave, UserID: sourceUserID(e.Source)}
	case webhook.PostbackEvent:
		return classifyPostback(e.Source, e.Postback)
	case *webhook.PostbackEvent:
		return classifyPostback(e.Source, e.Postback)
	case webhook.MessageEvent:
		return classifyMessage(e.Source, e.Message)
	case *webhook.MessageEvent:
		return classifyMessage(e.Source, e.Message)
	default:
		return Event{Kind: KindOther}
	}
}

func classifyPostback(src webhook.SourceInterface, pb *webhook.PostbackContent) Event {
	if pb == nil {
		return Event{Kind: KindOther, UserID: sourceUserID(src)}
	}
	return Event{Kind: KindPostback, UserID: sourceUserID(src), Body: pb.Data}
}

func classifyMessage(src webhook.SourceInterface, msg webhook.MessageContentInterface) Event {
	switch m := msg.(type) {
	case webhook.TextMessageContent:
		return Event{Kind: KindText, UserID: sourceUserID(src), Body: m.Text}
	case *webhook.TextMessageContent:
		return Event{Kind: KindText, UserID: sourceUserID(src), Body: m.Text}
	default:
		// Stickers, images and the rest carry no dialog meaning.
		return Event{Kind: KindOther, UserID: sourceUserID(src)}
	}
}

func sourceUserID(src webhook.SourceInterface) string {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId
	case *webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case *webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	case *webhook.RoomSource:
		return s.UserId
	default:
		return ""
	}
}

// IsStartPayload reports whether a postback payload is the start marker.
func IsStartPayload(payload string) bool {
	return strings.EqualFold(strings.TrimSpace(payload), StartKeyword)
}

// ContainsStartKeyword reports whether free text mentions the start keyword,
// case-insensitively.
func ContainsStartKeyword(text string) bool {
	return strings.Contains(strings.ToLower(text), StartKeyword)
}
