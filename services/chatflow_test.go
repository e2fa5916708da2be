package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"movewell-assistant/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prefixPrompts struct{}

func (prefixPrompts) Build(_ context.Context, query string) string {
	return "PROMPT: " + query
}

type classifierFunc func(message string) Intent

func (f classifierFunc) Classify(_ context.Context, message string) Intent {
	return f(message)
}

type spyResponder struct {
	mu      sync.Mutex
	reply   string
	history [][]models.ChatMessage
	newMsgs [][]models.ChatMessage
}

func (s *spyResponder) Respond(_ context.Context, history, newMessages []models.ChatMessage) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, append([]models.ChatMessage(nil), history...))
	s.newMsgs = append(s.newMsgs, append([]models.ChatMessage(nil), newMessages...))
	return s.reply
}

func (s *spyResponder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

var testProfile = ClinicProfile{
	ClinicName:    "MoveWell Physiotherapy & Rehab Centre",
	AssistantName: "Fysio",
	BookingURL:    "https://example.com/book",
}

type flowFixture struct {
	flow      *ChatFlow
	responder *spyResponder
	sink      *memorySink
}

func newFlowFixture(classify func(string) Intent) *flowFixture {
	responder := &spyResponder{reply: "Here is some advice."}
	sink := &memorySink{}
	flow := NewChatFlow(ChatFlowDeps{
		Store:      NewMemorySessionStore(time.Hour),
		Prompts:    prefixPrompts{},
		Classifier: classifierFunc(classify),
		Responder:  responder,
		Activity:   NewActivityLogger(time.Second, nil, sink),
		Profile:    testProfile,
		OfferAfter: 6,
	})
	return &flowFixture{flow: flow, responder: responder, sink: sink}
}

func alwaysGeneral(string) Intent { return IntentGeneral }

func (fx *flowFixture) chattingSession(t *testing.T) *models.Session {
	t.Helper()
	ctx := context.Background()
	s, err := fx.flow.StartSession(ctx)
	require.NoError(t, err)
	_, _, err = fx.flow.SubmitContact(ctx, s.ID, testContact)
	require.NoError(t, err)
	return s
}

func TestChatFlow_ChatDisabledBeforeContact(t *testing.T) {
	fx := newFlowFixture(alwaysGeneral)
	ctx := context.Background()

	s, err := fx.flow.StartSession(ctx)
	require.NoError(t, err)
	assert.False(t, s.ChatEnabled)
	require.Len(t, s.Transcript, 1)
	assert.Equal(t, models.RoleSystem, s.Transcript[0].Role)

	_, err = fx.flow.SendMessage(ctx, s.ID, "hello")
	assert.ErrorIs(t, err, ErrChatDisabled)
	assert.Zero(t, fx.responder.callCount())
}

func TestChatFlow_SubmitContact(t *testing.T) {
	fx := newFlowFixture(alwaysGeneral)
	ctx := context.Background()

	s, err := fx.flow.StartSession(ctx)
	require.NoError(t, err)

	updated, reply, err := fx.flow.SubmitContact(ctx, s.ID, testContact)
	require.NoError(t, err)
	assert.Equal(t, ContactSavedReply, reply)
	assert.True(t, updated.ChatEnabled)

	rows, err := fx.sink.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, testContact.Email, rows[0].Email)
	assert.Equal(t, s.ID, rows[0].SessionID)
	assert.Empty(t, rows[0].Question)
}

func TestChatFlow_HandoffSkipsResponder(t *testing.T) {
	fx := newFlowFixture(func(string) Intent { return IntentHandoff })
	s := fx.chattingSession(t)

	resp, err := fx.flow.SendMessage(context.Background(), s.ID, "I want to talk to a human")
	require.NoError(t, err)

	assert.Zero(t, fx.responder.callCount())
	assert.True(t, resp.Handoff)
	assert.Equal(t, "handoff", resp.Intent)
	assert.Equal(t, "Absolutely, Jane 👋 I can connect you with one of our consultants:", resp.Reply)
	require.NotNil(t, resp.CallToAction)
	assert.Equal(t, testProfile.BookingURL, resp.CallToAction.URL)
	assert.Nil(t, resp.ConsultantOffer)

	rows, err := fx.sink.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	last := rows[1]
	assert.Equal(t, "I want to talk to a human", last.Question)
	assert.Equal(t, models.HandoffNoReplyNotes, last.Response)
	assert.Equal(t, "handoff", last.Intent)
	assert.Equal(t, "yes", last.CTATriggered)
	assert.Equal(t, "1", last.MessageNumber)
	assert.Equal(t, s.ID, last.SessionID)
}

func TestChatFlow_NormalTurn(t *testing.T) {
	fx := newFlowFixture(alwaysGeneral)
	s := fx.chattingSession(t)
	ctx := context.Background()

	resp, err := fx.flow.SendMessage(ctx, s.ID, "Do you treat knee pain?")
	require.NoError(t, err)
	assert.Equal(t, "Here is some advice.", resp.Reply)
	assert.Equal(t, 1, resp.MessageNumber)
	assert.False(t, resp.Handoff)

	require.Equal(t, 1, fx.responder.callCount())
	// The raw message is not sent twice: history ends before it and the
	// retrieval prompt takes its place.
	assert.Equal(t, []models.ChatMessage{models.SystemMessage(testProfile.Persona())}, fx.responder.history[0])
	assert.Equal(t, []models.ChatMessage{models.UserMessage("PROMPT: Do you treat knee pain?")}, fx.responder.newMsgs[0])

	stored, err := fx.flow.GetSession(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, stored.Transcript, 3)
	assert.Equal(t, models.UserMessage("Do you treat knee pain?"), stored.Transcript[1])
	assert.Equal(t, models.AssistantMessage("Here is some advice."), stored.Transcript[2])

	rows, err := fx.sink.ReadAll()
	require.NoError(t, err)
	last := rows[len(rows)-1]
	assert.Equal(t, "Here is some advice.", last.Response)
	assert.Equal(t, "general", last.Intent)
	assert.Equal(t, "no", last.CTATriggered)
}

func TestChatFlow_ConsultantOfferShownOnce(t *testing.T) {
	fx := newFlowFixture(alwaysGeneral)
	s := fx.chattingSession(t)

	var offeredAt []int
	for i := 1; i <= 9; i++ {
		resp, err := fx.flow.SendMessage(context.Background(), s.ID, "question")
		require.NoError(t, err)
		if resp.ConsultantOffer != nil {
			offeredAt = append(offeredAt, resp.MessageNumber)
			assert.Equal(t, "Jane, if you'd prefer to speak directly with a consultant, feel free to book a time below:", resp.ConsultantOffer.Text)
		}
	}
	assert.Equal(t, []int{6}, offeredAt)
}

func TestChatFlow_Intake(t *testing.T) {
	fx := newFlowFixture(alwaysGeneral)
	ctx := context.Background()

	s, err := fx.flow.StartSession(ctx)
	require.NoError(t, err)
	_, _, err = fx.flow.SubmitContact(ctx, s.ID, testContact)
	require.NoError(t, err)

	answers := models.PhysioIntake{
		Region:      "Knee",
		Duration:    "< 1 week",
		Onset:       "Suddenly (injury)",
		Symptoms:    []string{"Stiffness"},
		PriorInjury: "No",
	}

	_, err = fx.flow.SubmitIntake(ctx, s.ID, answers)
	assert.ErrorIs(t, err, ErrIntakeNotStarted)

	started, err := fx.flow.StartIntake(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, started.IntakeMode)

	done, err := fx.flow.SubmitIntake(ctx, s.ID, answers)
	require.NoError(t, err)
	assert.False(t, done.IntakeMode)
	assert.True(t, done.ChatEnabled)
	require.NotNil(t, done.Intake)
	assert.Equal(t, "Knee", done.Intake.Region)

	welcome := done.Transcript[len(done.Transcript)-1]
	assert.Equal(t, models.RoleAssistant, welcome.Role)
	assert.True(t, strings.HasPrefix(welcome.Content, "Hi jane doe! 👋 I'm Fysio"))

	rows, err := fx.sink.ReadAll()
	require.NoError(t, err)
	last := rows[len(rows)-1]
	assert.Equal(t, models.IntakeQuestion, last.Question)
	assert.Contains(t, last.Response, `"region":"Knee"`)
	assert.Contains(t, last.Response, `"duration":"< 1 week"`)
	assert.Contains(t, last.Response, `"onset":"Suddenly (injury)"`)
	assert.Contains(t, last.Response, `"pain_level":5`)
	assert.Equal(t, s.ID, last.SessionID)
}

func TestChatFlow_UnknownSession(t *testing.T) {
	fx := newFlowFixture(alwaysGeneral)

	_, err := fx.flow.SendMessage(context.Background(), "nope", "hello")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = fx.flow.StartIntake(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestChatFlow_SerialisesSameSession(t *testing.T) {
	fx := newFlowFixture(alwaysGeneral)
	s := fx.chattingSession(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.flow.SendMessage(context.Background(), s.ID, "hi")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := fx.flow.GetSession(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, stored.UserMessageCount)
	assert.True(t, stored.ConsultantOfferShown)
	assert.Zero(t, fx.flow.locks.size())
}

func TestChatFlow_Answer(t *testing.T) {
	fx := newFlowFixture(alwaysGeneral)

	got := fx.flow.Answer(context.Background(), "hello")

	assert.Equal(t, "Here is some advice.", got)
	require.Equal(t, 1, fx.responder.callCount())
	assert.Equal(t, []models.ChatMessage{models.UserMessage("PROMPT: hello")}, fx.responder.newMsgs[0])
	assert.Equal(t, models.RoleSystem, fx.responder.history[0][0].Role)
}
