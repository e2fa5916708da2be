package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"movewell-assistant/internal/logger"
	"movewell-assistant/internal/telemetry"
	"movewell-assistant/models"
)

var (
	ErrChatDisabled     = errors.New("chat is not enabled for this session")
	ErrIntakeNotStarted = errors.New("intake has not been started")
)

// ContactSavedReply confirms a successful contact form submission.
const ContactSavedReply = "Details saved!"

// PromptBuilder turns a user question into a retrieval-augmented prompt.
type PromptBuilder interface {
	Build(ctx context.Context, query string) string
}

type Classifier interface {
	Classify(ctx context.Context, message string) Intent
}

type Answerer interface {
	Respond(ctx context.Context, history, newMessages []models.ChatMessage) string
}

// ChatFlow drives a session through contact collection, intake and chat.
// Operations on the same session id run one at a time.
type ChatFlow struct {
	store      SessionStore
	prompts    PromptBuilder
	classifier Classifier
	responder  Answerer
	activity   *ActivityLogger
	profile    ClinicProfile
	offerAfter int
	metrics    *telemetry.Metrics
	locks      *keyedMutex
}

// ChatFlowDeps groups the collaborators of a ChatFlow.
type ChatFlowDeps struct {
	Store      SessionStore
	Prompts    PromptBuilder
	Classifier Classifier
	Responder  Answerer
	Activity   *ActivityLogger
	Profile    ClinicProfile
	OfferAfter int
	Metrics    *telemetry.Metrics
}

func NewChatFlow(deps ChatFlowDeps) *ChatFlow {
	return &ChatFlow{
		store:      deps.Store,
		prompts:    deps.Prompts,
		classifier: deps.Classifier,
		responder:  deps.Responder,
		activity:   deps.Activity,
		profile:    deps.Profile,
		offerAfter: deps.OfferAfter,
		metrics:    deps.Metrics,
		locks:      newKeyedMutex(),
	}
}

// StartSession creates a pre-contact session.
func (f *ChatFlow) StartSession(ctx context.Context) (*models.Session, error) {
	s := models.NewSession(f.profile.Persona())
	if err := f.store.Save(ctx, s); err != nil {
		return nil, err
	}
	logger.Info("Session started", "session_id", s.ID)
	return s, nil
}

func (f *ChatFlow) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return f.store.Get(ctx, id)
}

// SubmitContact stores validated contact details, enables chat and logs a
// contact row.
func (f *ChatFlow) SubmitContact(ctx context.Context, id string, contact models.ContactDetails) (*models.Session, string, error) {
	unlock := f.locks.Lock(id)
	defer unlock()

	s, err := f.store.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	s.SubmitContact(contact)
	if err := f.store.Save(ctx, s); err != nil {
		return nil, "", err
	}

	row := s.LogRow()
	row.SessionID = s.ID
	f.activity.Log(ctx, row)

	return s, ContactSavedReply, nil
}

// StartIntake switches the session into intake mode with no answers.
func (f *ChatFlow) StartIntake(ctx context.Context, id string) (*models.Session, error) {
	unlock := f.locks.Lock(id)
	defer unlock()

	s, err := f.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.BeginIntake()
	if err := f.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// SubmitIntake snapshots the answers, logs them and returns the session to
// chat with a personalised welcome in the transcript.
func (f *ChatFlow) SubmitIntake(ctx context.Context, id string, answers models.PhysioIntake) (*models.Session, error) {
	unlock := f.locks.Lock(id)
	defer unlock()

	s, err := f.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.IntakeMode {
		return nil, ErrIntakeNotStarted
	}

	s.CompleteIntake(answers)
	encoded, err := encodeIntake(s.Intake)
	if err != nil {
		return nil, err
	}
	s.AppendAssistant(f.profile.Welcome(s.DisplayName()))
	if err := f.store.Save(ctx, s); err != nil {
		return nil, err
	}

	row := s.LogRow()
	row.Question = models.IntakeQuestion
	row.Response = encoded
	row.SessionID = s.ID
	f.activity.Log(ctx, row)

	return s, nil
}

// encodeIntake renders answers for the activity log with labels kept as
// entered ("< 1 week" rather than "\u003c 1 week").
func encodeIntake(answers *models.PhysioIntake) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(answers); err != nil {
		return "", fmt.Errorf("encode intake: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// SendMessage runs one chat turn. A handoff intent answers with the booking
// call-to-action and never reaches the responder.
func (f *ChatFlow) SendMessage(ctx context.Context, id, message string) (*models.ChatResponse, error) {
	unlock := f.locks.Lock(id)
	defer unlock()

	s, err := f.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.ChatEnabled {
		return nil, ErrChatDisabled
	}

	n := s.AcceptUserMessage(message)
	intent := f.classifier.Classify(ctx, message)
	firstName := s.FirstName()

	resp := &models.ChatResponse{
		SessionID:     s.ID,
		Intent:        string(intent),
		MessageNumber: n,
	}
	row := s.LogRow()
	row.Question = message
	row.Intent = string(intent)
	row.MessageNumber = models.MessageNumber(n)
	row.SessionID = s.ID

	if intent == IntentHandoff {
		resp.Reply = f.profile.HandoffReply(firstName)
		resp.Handoff = true
		resp.CallToAction = f.profile.BookingCTA(resp.Reply)
		s.AppendAssistant(resp.Reply)
		f.metrics.RecordHandoff(ctx)

		row.Response = models.HandoffNoReplyNotes
		row.CTATriggered = models.CTAFlag(true)
	} else {
		prompt := f.prompts.Build(ctx, message)
		resp.Reply = f.responder.Respond(ctx, s.History(), []models.ChatMessage{models.UserMessage(prompt)})
		s.AppendAssistant(resp.Reply)

		if s.ClaimConsultantOffer(f.offerAfter) {
			resp.ConsultantOffer = f.profile.BookingCTA(f.profile.ConsultantOffer(firstName))
			f.metrics.RecordConsultantOffer(ctx)
		}

		row.Response = resp.Reply
		row.CTATriggered = models.CTAFlag(false)
	}

	if err := f.store.Save(ctx, s); err != nil {
		return nil, err
	}
	f.activity.Log(ctx, row)

	return resp, nil
}

// Answer is the stateless pipeline behind POST /endpoint: retrieval prompt
// plus one completion, with no session, classification or logging.
func (f *ChatFlow) Answer(ctx context.Context, message string) string {
	prompt := f.prompts.Build(ctx, message)
	history := []models.ChatMessage{models.SystemMessage(f.profile.Persona())}
	return f.responder.Respond(ctx, history, []models.ChatMessage{models.UserMessage(prompt)})
}
