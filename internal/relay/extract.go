// Package relay turns inbound webhook messages into bot conversation
// turns and bot activity logs into SMS-sized text replies.
package relay

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/reecen30/BotConnectorAPI/internal/directline"
)

// Extraction modes. "latest" takes the most recent bot message only;
// "all" concatenates every bot message that isn't an echo of the
// user's own text.
const (
	ModeLatest = "latest"
	ModeAll    = "all"
)

// suggestedActionsHeader precedes the rendered quick-reply choices.
const suggestedActionsHeader = "Choose an option:"

// citationPattern matches the citation markers some bots append to
// grounded answers: a bracketed integer, optionally followed by a
// colon-prefixed cite reference and quoted title, e.g.
// `[1]` or `[1]: cite:123 "Title"`.
var citationPattern = regexp.MustCompile(`\[\d+\](?:: cite:\d+ ".*?")?`)

// StripCitations removes citation markers and trims the result.
// Idempotent: stripped text contains no markers to strip again.
func StripCitations(s string) string {
	return strings.TrimSpace(citationPattern.ReplaceAllString(s, ""))
}

// Reply is the flattened, user-facing result of an activity log.
// SubmitData is non-nil when an adaptive card declared a submit action;
// the orchestrator may use it for a single auto-submit round.
type Reply struct {
	Text       string
	SubmitData map[string]any
}

// Extractor reduces an ordered activity log to a Reply.
type Extractor struct {
	Mode string
}

// NewExtractor creates an extractor for the given mode. Unknown modes
// fall back to "latest".
func NewExtractor(mode string) *Extractor {
	if mode != ModeAll {
		mode = ModeLatest
	}
	return &Extractor{Mode: mode}
}

// Extract flattens the activity log into a single reply. excludeText
// is the user's own inbound message; bot activities echoing it are
// ignored. An empty Text means the bot produced nothing; the caller
// decides the sentinel wording.
func (e *Extractor) Extract(activities []directline.Activity, excludeText string) Reply {
	if e.Mode == ModeAll {
		return e.extractAll(activities, excludeText)
	}
	return e.extractLatest(activities)
}

// extractLatest selects the most recent bot message and flattens it.
func (e *Extractor) extractLatest(activities []directline.Activity) Reply {
	for i := len(activities) - 1; i >= 0; i-- {
		a := activities[i]
		if a.From.Role == directline.RoleBot && a.Type == directline.ActivityTypeMessage {
			return flattenActivity(a, StripCitations(a.Text))
		}
	}
	return Reply{}
}

// extractAll concatenates every non-echo bot message, then renders the
// suggested actions and attachments of the last bot message in the
// batch, so option lists appear once.
func (e *Extractor) extractAll(activities []directline.Activity, excludeText string) Reply {
	var texts []string
	var last *directline.Activity
	for i := range activities {
		a := activities[i]
		if a.From.Role != directline.RoleBot || a.Type != directline.ActivityTypeMessage {
			continue
		}
		last = &activities[i]
		if a.Text != "" && strings.TrimSpace(a.Text) != strings.TrimSpace(excludeText) {
			if cleaned := StripCitations(a.Text); cleaned != "" {
				texts = append(texts, cleaned)
			}
		}
	}
	if last == nil {
		return Reply{}
	}
	return flattenActivity(*last, strings.Join(texts, "\n"))
}

// flattenActivity combines the primary text with the activity's
// suggested actions block and attachment-derived text, newline-joined.
func flattenActivity(a directline.Activity, primary string) Reply {
	var blocks []string
	if primary != "" {
		blocks = append(blocks, primary)
	}

	if block := renderSuggestedActions(a.SuggestedActions); block != "" {
		blocks = append(blocks, block)
	}

	var submitData map[string]any
	for _, att := range a.Attachments {
		text, data := renderAttachment(att)
		if text != "" {
			blocks = append(blocks, text)
		}
		if submitData == nil {
			submitData = data
		}
	}

	return Reply{
		Text:       strings.TrimSpace(strings.Join(blocks, "\n")),
		SubmitData: submitData,
	}
}

// renderSuggestedActions renders quick replies as a header plus one
// dashed line per action, preserving order.
func renderSuggestedActions(sa *directline.SuggestedActions) string {
	if sa == nil || len(sa.Actions) == 0 {
		return ""
	}
	lines := make([]string, 0, len(sa.Actions)+1)
	lines = append(lines, suggestedActionsHeader)
	for _, action := range sa.Actions {
		lines = append(lines, "- "+action.Title)
	}
	return strings.Join(lines, "\n")
}

// renderAttachment flattens one attachment. Adaptive cards are walked
// for label/text content and a declared submit action; anything else
// degrades to its content URL or inline content.
func renderAttachment(att directline.Attachment) (string, map[string]any) {
	if att.ContentType != directline.AdaptiveCardContentType {
		if att.ContentURL != "" {
			return att.ContentURL, nil
		}
		return strings.TrimSpace(string(att.Content)), nil
	}

	var card directline.AdaptiveCard
	if err := json.Unmarshal(att.Content, &card); err != nil {
		return "", nil
	}

	lines := flattenCardBody(card.Body)

	var submitData map[string]any
	for _, action := range card.Actions {
		if action.Type == directline.SubmitActionType {
			submitData = action.Data
			if submitData == nil {
				submitData = map[string]any{}
			}
			break
		}
	}

	return strings.Join(lines, "\n"), submitData
}

// flattenCardBody walks card body items in document order. An item
// with nested items contributes each of them; a leaf contributes
// itself. Label comes before text, each on its own line.
func flattenCardBody(body []directline.CardElement) []string {
	var lines []string
	appendElement := func(el directline.CardElement) {
		if el.Label != "" {
			lines = append(lines, el.Label)
		}
		if el.Text != "" {
			lines = append(lines, el.Text)
		}
	}
	for _, el := range body {
		if len(el.Items) > 0 {
			for _, item := range el.Items {
				appendElement(item)
			}
			continue
		}
		appendElement(el)
	}
	return lines
}

// HasBotReply reports whether the log contains a bot message that is
// more than an echo of the user's own text. The orchestrator polls
// until this holds or its deadline elapses.
func HasBotReply(activities []directline.Activity, excludeText string) bool {
	for _, a := range activities {
		if a.From.Role != directline.RoleBot || a.Type != directline.ActivityTypeMessage {
			continue
		}
		if a.Text != "" && strings.TrimSpace(a.Text) != strings.TrimSpace(excludeText) {
			return true
		}
		if len(a.Attachments) > 0 || (a.SuggestedActions != nil && len(a.SuggestedActions.Actions) > 0) {
			return true
		}
	}
	return false
}
