package core

// Speaker prefixes used in the short-term buffer and in exchange transcripts.
const (
	UserPrefix = "User: "
	BotPrefix  = "Bot: "
)

// Exchange is one completed user/bot round trip.
type Exchange struct {
	// UserMessage is the message the user sent this turn.
	UserMessage string

	// BotResponse is the full generated reply.
	BotResponse string
}

// String renders the exchange the way it is shown to the oracle when deciding
// persistence, summarizing, tagging and reflecting.
func (e Exchange) String() string {
	return UserLine(e.UserMessage) + "\n" + BotLine(e.BotResponse)
}

// UserLine formats a user message as a short-term buffer entry.
func UserLine(msg string) string {
	return UserPrefix + msg
}

// BotLine formats a bot response as a short-term buffer entry.
func BotLine(msg string) string {
	return BotPrefix + msg
}
