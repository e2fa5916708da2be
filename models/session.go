package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Session is the per-visitor state of the widget. It is passed explicitly to
// every flow operation and persisted by a SessionStore between requests.
//
// Composite states:
//   - pre-contact: !ChatEnabled && !IntakeMode
//   - contact collected / chatting: ChatEnabled && !IntakeMode
//   - intake in progress: IntakeMode
type Session struct {
	ID                   string         `json:"session_id"`
	Contact              ContactDetails `json:"contact"`
	ChatEnabled          bool           `json:"chat_enabled"`
	IntakeMode           bool           `json:"intake_mode"`
	Intake               *PhysioIntake  `json:"intake,omitempty"`
	Transcript           []ChatMessage  `json:"transcript"`
	UserMessageCount     int            `json:"user_message_count"`
	ConsultantOfferShown bool           `json:"consultant_offer_shown"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// NewSessionID returns a short id: the first 8 characters of a random UUID.
func NewSessionID() string {
	return uuid.NewString()[:8]
}

// NewSession creates a pre-contact session whose transcript starts with the
// assistant persona as system message.
func NewSession(persona string) *Session {
	now := time.Now()
	s := &Session{
		ID:        NewSessionID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if persona != "" {
		s.Transcript = append(s.Transcript, SystemMessage(persona))
	}
	return s
}

// SubmitContact stores contact details and enables chat.
func (s *Session) SubmitContact(contact ContactDetails) {
	s.Contact = contact
	s.ChatEnabled = true
}

// BeginIntake enters intake mode with an empty answer set.
func (s *Session) BeginIntake() {
	s.IntakeMode = true
	s.Intake = nil
}

// CompleteIntake snapshots the answers and returns to chatting.
func (s *Session) CompleteIntake(answers PhysioIntake) {
	snapshot := answers
	snapshot.Symptoms = append([]string(nil), answers.Symptoms...)
	snapshot.ActivitiesAffected = append([]string(nil), answers.ActivitiesAffected...)
	snapshot.RedFlags = append([]string(nil), answers.RedFlags...)
	pain := DefaultPainLevel
	if answers.PainLevel != nil {
		pain = *answers.PainLevel
	}
	snapshot.PainLevel = &pain

	s.Intake = &snapshot
	s.IntakeMode = false
	s.ChatEnabled = true
}

// AcceptUserMessage appends a user message to the transcript and returns the
// new value of the user-message counter.
func (s *Session) AcceptUserMessage(content string) int {
	s.Transcript = append(s.Transcript, UserMessage(content))
	s.UserMessageCount++
	return s.UserMessageCount
}

func (s *Session) AppendAssistant(content string) {
	s.Transcript = append(s.Transcript, AssistantMessage(content))
}

// History returns the transcript up to, but excluding, the most recent user
// message. It is what the responder sees as prior conversation.
func (s *Session) History() []ChatMessage {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Role == RoleUser {
			return s.Transcript[:i:i]
		}
	}
	return s.Transcript
}

// ClaimConsultantOffer reports whether the one-time consultant offer should be
// shown now, and marks it shown if so. It never returns true twice.
func (s *Session) ClaimConsultantOffer(threshold int) bool {
	if s.ConsultantOfferShown || s.UserMessageCount < threshold {
		return false
	}
	s.ConsultantOfferShown = true
	return true
}

// FirstName is the capitalised first word of the contact name, or "there".
func (s *Session) FirstName() string {
	fields := strings.Fields(s.Contact.Name)
	if len(fields) == 0 {
		return "there"
	}
	first := strings.ToLower(fields[0])
	r, size := utf8.DecodeRuneInString(first)
	return string(unicode.ToUpper(r)) + first[size:]
}

// DisplayName is the trimmed contact name, or "there".
func (s *Session) DisplayName() string {
	if name := strings.TrimSpace(s.Contact.Name); name != "" {
		return name
	}
	return "there"
}

// LogRow starts an activity-log row for this session's contact.
func (s *Session) LogRow() LogRow {
	return NewLogRow(s.Contact)
}
