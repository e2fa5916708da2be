package models

import (
	"strconv"
	"time"
)

// TimestampLayout is how LogRow timestamps are written to spreadsheets.
const TimestampLayout = "2006-01-02 15:04:05"

// Markers written in place of a model reply.
const (
	IntakeQuestion      = "[Physio Intake]"
	HandoffNoReplyNotes = "[CTA Triggered – No GPT reply]"
)

// LogRow is one activity-log record. Optional fields stay empty strings when
// not applicable so every sink writes the same column layout.
type LogRow struct {
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
	Name          string    `bson:"name" json:"name"`
	Email         string    `bson:"email" json:"email"`
	Company       string    `bson:"company" json:"company"`
	Phone         string    `bson:"phone" json:"phone"`
	Country       string    `bson:"country" json:"country"`
	Question      string    `bson:"question" json:"question"`
	Response      string    `bson:"response" json:"response"`
	Intent        string    `bson:"intent" json:"intent"`
	CTATriggered  string    `bson:"cta_triggered" json:"cta_triggered"`
	MessageNumber string    `bson:"message_number" json:"message_number"`
	SessionID     string    `bson:"session_id" json:"session_id"`
}

// LogColumns is the header of spreadsheet sinks, in Values order.
var LogColumns = []string{
	"timestamp", "name", "email", "company", "phone", "country",
	"question", "response", "intent", "cta_triggered", "message_number", "session_id",
}

// NewLogRow starts a row with the contact fields filled in.
func NewLogRow(contact ContactDetails) LogRow {
	return LogRow{
		Name:    contact.Name,
		Email:   contact.Email,
		Company: contact.Company,
		Phone:   contact.Phone,
		Country: contact.Country,
	}
}

// Values returns the row as spreadsheet cells in LogColumns order.
func (r LogRow) Values() []string {
	return []string{
		r.Timestamp.Format(TimestampLayout),
		r.Name,
		r.Email,
		r.Company,
		r.Phone,
		r.Country,
		r.Question,
		r.Response,
		r.Intent,
		r.CTATriggered,
		r.MessageNumber,
		r.SessionID,
	}
}

// LogRowFromValues is the inverse of Values. Missing trailing cells are
// treated as empty.
func LogRowFromValues(cells []string) (LogRow, error) {
	padded := make([]string, len(LogColumns))
	copy(padded, cells)

	var ts time.Time
	if padded[0] != "" {
		parsed, err := time.ParseInLocation(TimestampLayout, padded[0], time.Local)
		if err != nil {
			return LogRow{}, err
		}
		ts = parsed
	}

	return LogRow{
		Timestamp:     ts,
		Name:          padded[1],
		Email:         padded[2],
		Company:       padded[3],
		Phone:         padded[4],
		Country:       padded[5],
		Question:      padded[6],
		Response:      padded[7],
		Intent:        padded[8],
		CTATriggered:  padded[9],
		MessageNumber: padded[10],
		SessionID:     padded[11],
	}, nil
}

// CTAFlag renders the cta_triggered column.
func CTAFlag(triggered bool) string {
	if triggered {
		return "yes"
	}
	return "no"
}

func MessageNumber(n int) string {
	return strconv.Itoa(n)
}
