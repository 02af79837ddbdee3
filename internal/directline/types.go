package directline

import "encoding/json"

// Activity types and sender roles used on the Direct Line wire.
const (
	ActivityTypeMessage = "message"

	RoleBot  = "bot"
	RoleUser = "user"
)

// AdaptiveCardContentType marks an attachment as an adaptive card.
const AdaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

// Identity identifies the bot the relay speaks for. Immutable, loaded
// once at process start.
type Identity struct {
	Name          string
	ID            string
	TenantID      string
	TokenEndpoint string
}

// ChannelAccount identifies a conversation participant.
type ChannelAccount struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// Activity is a single event in the conversation transcript.
type Activity struct {
	ID               string            `json:"id,omitempty"`
	Type             string            `json:"type"`
	From             ChannelAccount    `json:"from"`
	Text             string            `json:"text,omitempty"`
	Value            map[string]any    `json:"value,omitempty"`
	Attachments      []Attachment      `json:"attachments,omitempty"`
	SuggestedActions *SuggestedActions `json:"suggestedActions,omitempty"`
}

// Attachment carries rich content on an activity. Content is kept raw
// so card payloads can be decoded on demand.
type Attachment struct {
	ContentType string          `json:"contentType,omitempty"`
	ContentURL  string          `json:"contentUrl,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
}

// SuggestedActions offers quick-reply choices to the user.
type SuggestedActions struct {
	Actions []CardAction `json:"actions"`
}

// CardAction is a single suggested action or card action button.
type CardAction struct {
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
	Value any    `json:"value,omitempty"`
}

// ActivitySet is the ordered activity log returned by the fetch endpoint
// and streamed over the conversation socket.
type ActivitySet struct {
	Activities []Activity `json:"activities"`
	Watermark  string     `json:"watermark,omitempty"`
}

// Conversation is the handle returned when a conversation is started.
type Conversation struct {
	ConversationID string `json:"conversationId"`
	Token          string `json:"token"`
	StreamURL      string `json:"streamUrl,omitempty"`
	ExpiresIn      int    `json:"expires_in,omitempty"`
}

// AdaptiveCard is the subset of the card schema the relay flattens to
// plain text for the SMS channel.
type AdaptiveCard struct {
	Type    string        `json:"type,omitempty"`
	Body    []CardElement `json:"body,omitempty"`
	Actions []CardButton  `json:"actions,omitempty"`
}

// CardElement is a card body item. Containers nest further items.
type CardElement struct {
	Type  string        `json:"type,omitempty"`
	Label string        `json:"label,omitempty"`
	Text  string        `json:"text,omitempty"`
	Items []CardElement `json:"items,omitempty"`
}

// CardButton is an action declared on a card.
type CardButton struct {
	Type  string         `json:"type,omitempty"`
	Title string         `json:"title,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// SubmitActionType marks a card button that posts its data back to the bot.
const SubmitActionType = "Action.Submit"
