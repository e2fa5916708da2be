package services

import (
	"context"
	"sync"

	"movewell-assistant/models"
)

type stubCompleter struct {
	mu        sync.Mutex
	reply     string
	err       error
	panicWith any
	calls     [][]models.ChatMessage
	deadlines []bool
}

func (s *stubCompleter) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]models.ChatMessage(nil), messages...))
	_, hasDeadline := ctx.Deadline()
	s.deadlines = append(s.deadlines, hasDeadline)
	s.mu.Unlock()

	if s.panicWith != nil {
		panic(s.panicWith)
	}
	return s.reply, s.err
}

// memorySink is the in-memory spreadsheet: it stores cells, not structs.
type memorySink struct {
	mu   sync.Mutex
	rows [][]string
	err  error
}

func (m *memorySink) Name() string { return "memory" }

func (m *memorySink) Append(_ context.Context, row models.LogRow) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row.Values())
	return nil
}

func (m *memorySink) ReadAll() ([]models.LogRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.LogRow, 0, len(m.rows))
	for _, cells := range m.rows {
		row, err := models.LogRowFromValues(cells)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

type panicSink struct{}

func (panicSink) Name() string { return "panic" }

func (panicSink) Append(context.Context, models.LogRow) error {
	panic("sink exploded")
}
