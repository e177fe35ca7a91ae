package dashboard

import (
	"context"

	"github.com/turtacn/bref-insight/internal/application/assistant"
	"github.com/turtacn/bref-insight/internal/domain/patent"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

// AddSectionToChat adds BREF section id to the chat context.  The section
// text comes from the BREF text table; a missing row leaves Content empty.
// It reports whether the context changed.
func (s *Session) AddSectionToChat(ctx context.Context, id string) (bool, error) {
	node, ok := s.navigator.Hierarchy().Find(id)
	if !ok {
		return false, apperrors.New(apperrors.CodeNodeNotFound, "node not found").WithDetail(id)
	}
	sec := assistant.Section{ID: node.ID, Name: node.DisplayName()}

	table, err := s.docs.BrefText(ctx)
	if err != nil {
		s.logger.Warn("BREF text unavailable", logging.String("node_id", id), logging.Err(err))
	}
	if row, found := table.Lookup(id); found {
		sec.Content = row.Text()
	}
	return s.assistant.Context().AddSection(sec), nil
}

// RemoveSectionFromChat removes section id; missing ids are a no-op.
func (s *Session) RemoveSectionFromChat(id string) bool {
	return s.assistant.Context().RemoveSection(id)
}

// AddPatentToChat adds patent id, looked up among the ranked patents, the
// pollutant's top list and the patent index, in that order.
func (s *Session) AddPatentToChat(id string) (bool, error) {
	p, ok := s.lookupPatent(id)
	if !ok {
		return false, apperrors.New(apperrors.CodeNotFound, "patent not found").WithDetail(id)
	}
	return s.assistant.Context().AddPatent(p), nil
}

// RemovePatentFromChat removes patent id; missing ids are a no-op.
func (s *Session) RemovePatentFromChat(id string) bool {
	return s.assistant.Context().RemovePatent(id)
}

func (s *Session) lookupPatent(id string) (patent.Patent, bool) {
	for _, p := range s.RankedPatents().Patents {
		if p.ID == id {
			return p, true
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current != nil {
		for _, p := range s.current.top {
			if p.ID == id {
				return p, true
			}
		}
	}
	return s.index.Lookup(id)
}

// Ask runs one chat turn with the current context.
func (s *Session) Ask(ctx context.Context, text string) (assistant.Message, error) {
	return s.assistant.SendMessage(ctx, text)
}

//Personal.AI order the ending
