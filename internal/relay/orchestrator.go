package relay

import (
	"context"
	"strings"
	"time"

	"github.com/reecen30/BotConnectorAPI/internal/directline"
	"github.com/reecen30/BotConnectorAPI/internal/logging"
	"github.com/reecen30/BotConnectorAPI/internal/session"
)

// TokenSource acquires a bearer token for the bot identity.
type TokenSource interface {
	Acquire(ctx context.Context) (string, error)
}

// Transport is the conversation surface the orchestrator drives.
// *directline.Client satisfies it.
type Transport interface {
	StartConversation(ctx context.Context, botToken string) (*directline.Conversation, error)
	PostActivity(ctx context.Context, conversationID, conversationToken string, activity directline.Activity) (string, error)
	Activities(ctx context.Context, conversationID, conversationToken, watermark string) (*directline.ActivitySet, error)
	StreamActivities(ctx context.Context, streamURL string, done func([]directline.Activity) bool) ([]directline.Activity, error)
}

// Options tunes a single orchestrator.
type Options struct {
	BotName                string
	EndConversationMessage string
	SubmitTextKey          string // key the inbound body is merged under when auto-submitting card data
	NoReplyText            string
	PollInitial            time.Duration
	PollMax                time.Duration
	PollDeadline           time.Duration
	Stream                 bool
}

// Orchestrator composes token acquisition, session reuse, the
// conversation transport, and reply extraction for one inbound
// webhook call at a time.
type Orchestrator struct {
	tokens    TokenSource
	transport Transport
	sessions  session.Store
	extractor *Extractor
	opts      Options
	log       *logging.Logger

	// injectable for fake-clock tests
	sleep func(time.Duration)
	now   func() time.Time
}

// NewOrchestrator wires the relay pipeline.
func NewOrchestrator(tokens TokenSource, transport Transport, sessions session.Store, extractor *Extractor, opts Options, log *logging.Logger) *Orchestrator {
	return &Orchestrator{
		tokens:    tokens,
		transport: transport,
		sessions:  sessions,
		extractor: extractor,
		opts:      opts,
		log:       log.Sub("relay"),
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// Relay runs one inbound message through the bot conversation and
// returns the extracted reply text. Per call it acquires exactly one
// token, starts at most one conversation, and renews a stale session
// at most once.
func (o *Orchestrator) Relay(ctx context.Context, sender, body string) (string, error) {
	token, err := o.tokens.Acquire(ctx)
	if err != nil {
		return "", err
	}

	entry, resumed := o.sessions.Lookup(sender)
	streamURL := ""
	if !resumed {
		entry, streamURL, err = o.startSession(ctx, token, sender)
		if err != nil {
			return "", err
		}
		o.log.Debug().Str("sender", sender).Str("conversation", entry.ConversationID).Msg("new conversation")
	}

	activity := o.messageActivity(sender, body)
	if _, err = o.transport.PostActivity(ctx, entry.ConversationID, entry.Token, activity); err != nil {
		if !resumed || !directline.IsStaleToken(err) {
			return "", err
		}
		// The cached conversation token went stale. Renew once:
		// a fresh conversation atomically replaces the entry, then
		// the original message is resent.
		o.log.Info().Str("sender", sender).Msg("session token stale, renewing conversation")
		entry, streamURL, err = o.startSession(ctx, token, sender)
		if err != nil {
			return "", err
		}
		if _, err = o.transport.PostActivity(ctx, entry.ConversationID, entry.Token, activity); err != nil {
			return "", err
		}
	}

	activities, err := o.awaitReply(ctx, entry, streamURL, body)
	if err != nil {
		return "", err
	}
	reply := o.extractor.Extract(activities, body)

	// A card that declares a submit action gets one auto-submit round:
	// its data, plus the inbound text under the configured key, goes
	// back to the bot and the reply is re-extracted. Never loops.
	if reply.SubmitData != nil {
		reply, err = o.autoSubmit(ctx, entry, streamURL, sender, body, reply)
		if err != nil {
			return "", err
		}
	}

	if strings.EqualFold(strings.TrimSpace(body), o.opts.EndConversationMessage) {
		o.sessions.Delete(sender)
		o.log.Debug().Str("sender", sender).Msg("conversation ended by sender")
	}

	if reply.Text == "" {
		return o.opts.NoReplyText, nil
	}
	return reply.Text, nil
}

// startSession opens a fresh conversation and stores it for the
// sender, overwriting any prior entry.
func (o *Orchestrator) startSession(ctx context.Context, botToken, sender string) (session.Entry, string, error) {
	conv, err := o.transport.StartConversation(ctx, botToken)
	if err != nil {
		return session.Entry{}, "", err
	}
	entry := session.Entry{
		ConversationID: conv.ConversationID,
		Token:          conv.Token,
		CreatedAt:      o.now(),
	}
	o.sessions.Put(sender, entry)
	return entry, conv.StreamURL, nil
}

// autoSubmit posts the card's declared data merged with the inbound
// body, then waits for and extracts the follow-up reply.
func (o *Orchestrator) autoSubmit(ctx context.Context, entry session.Entry, streamURL, sender, body string, prior Reply) (Reply, error) {
	value := make(map[string]any, len(prior.SubmitData)+1)
	for k, v := range prior.SubmitData {
		value[k] = v
	}
	value[o.opts.SubmitTextKey] = body

	submit := directline.Activity{
		Type:  directline.ActivityTypeMessage,
		From:  directline.ChannelAccount{ID: sender, Name: o.opts.BotName},
		Value: value,
	}
	if _, err := o.transport.PostActivity(ctx, entry.ConversationID, entry.Token, submit); err != nil {
		return Reply{}, err
	}

	activities, err := o.awaitReply(ctx, entry, streamURL, body)
	if err != nil {
		return Reply{}, err
	}
	reply := o.extractor.Extract(activities, body)
	if reply.Text == "" {
		// bot had nothing further to say; keep the card rendering
		reply.Text = prior.Text
	}
	reply.SubmitData = nil
	return reply, nil
}

// awaitReply waits for the bot's answer. With streaming enabled and a
// stream URL available it listens on the conversation socket;
// otherwise it polls the activity log with doubling intervals until a
// bot reply appears or the deadline elapses. A timeout is not an
// error: the caller falls through to the no-reply sentinel.
func (o *Orchestrator) awaitReply(ctx context.Context, entry session.Entry, streamURL, excludeText string) ([]directline.Activity, error) {
	deadline := o.now().Add(o.opts.PollDeadline)
	arrived := func(acts []directline.Activity) bool {
		return HasBotReply(acts, excludeText)
	}

	if o.opts.Stream && streamURL != "" {
		sctx, cancel := context.WithDeadline(ctx, deadline)
		defer cancel()
		return o.transport.StreamActivities(sctx, streamURL, arrived)
	}

	interval := o.opts.PollInitial
	var last []directline.Activity
	for {
		set, err := o.transport.Activities(ctx, entry.ConversationID, entry.Token, "")
		if err != nil {
			return nil, err
		}
		last = set.Activities
		if arrived(last) {
			return last, nil
		}
		if o.now().After(deadline) {
			o.log.Debug().Str("conversation", entry.ConversationID).Msg("no bot reply before deadline")
			return last, nil
		}
		o.sleep(interval)
		interval *= 2
		if interval > o.opts.PollMax {
			interval = o.opts.PollMax
		}
	}
}

func (o *Orchestrator) messageActivity(sender, body string) directline.Activity {
	return directline.Activity{
		Type: directline.ActivityTypeMessage,
		From: directline.ChannelAccount{ID: sender, Name: o.opts.BotName},
		Text: body,
	}
}
