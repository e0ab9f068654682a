// Package dialog implements the conversation engine: event classification,
// the per-user dialog state machine, and rendering of outbound messages.
package dialog

// Action is the persisted record of the last thing a user did. The most
// recent action for a user fully determines the dialog mode for their next
// event.
type Action string

const (
	// ActionUnknown is the sentinel for "no prior history".
	ActionUnknown Action = "unknown"
	// ActionJoined is recorded by historic versions of the follow flow.
	// It still maps to the idle mode when read back.
	ActionJoined Action = "joined"
	// ActionStartRequested means the user triggered the start flow and the
	// next text input is a dictionary query.
	ActionStartRequested Action = "start_requested"
	// ActionLookupPerformed means the user already searched; further text
	// input keeps being treated as queries.
	ActionLookupPerformed Action = "lookup_performed"
)

// ParseAction maps a stored value back to an Action, defaulting to unknown.
func ParseAction(s string) Action {
	switch Action(s) {
	case ActionJoined, ActionStartRequested, ActionLookupPerformed:
		return Action(s)
	default:
		return ActionUnknown
	}
}

// Kind identifies the semantic class of an inbound event.
type Kind int

const (
	// KindOther covers everything the classifier does not recognize.
	KindOther Kind = iota
	// KindJoin is a membership join (the user followed the bot).
	KindJoin
	// KindLeave is a membership leave (the user unfollowed the bot).
	KindLeave
	// KindText is a plain text message.
	KindText
	// KindPostback is a button activation carrying a payload string.
	KindPostback
)

// String returns the log-friendly name of the kind.
func (k Kind) String() string {
	switch k {
	case KindJoin:
		return "join"
	case KindLeave:
		return "leave"
	case KindText:
		return "text"
	case KindPostback:
		return "postback"
	default:
		return "other"
	}
}

// Event is the classifier's normalized view of one inbound platform event.
type Event struct {
	Kind   Kind
	UserID string
	// Body holds the message text for KindText and the payload for
	// KindPostback.
	Body string
}
