package services

import (
	"context"

	"rosterchat/internal/app/ai"
	"rosterchat/internal/app/models"
	"rosterchat/internal/app/parser"
)

// Resolution is one resolver's reading of a question. The orchestrator acts on
// whichever resolver produced it and never merges partial results from two
// resolvers.
type Resolution struct {
	Relevant   bool
	Subject    string
	CatalogNbr string
	Intent     models.Intent

	// TermSeason/TermYear are set when the user asked about an explicit term.
	TermSeason string
	TermYear   int

	// TitleQuery holds leftover free text usable as a title search. Only the
	// heuristic resolver produces it.
	TitleQuery string

	// Temporal marks a vague "what classes are offered" style question.
	Temporal bool
}

// HasCourse reports whether the resolution carries a full course code.
func (r *Resolution) HasCourse() bool {
	return r.Subject != "" && r.CatalogNbr != ""
}

// HasSubject reports whether the resolution carries at least a subject.
func (r *Resolution) HasSubject() bool {
	return r.Subject != ""
}

// QueryResolver turns a raw question into a Resolution. Resolvers are tried in
// a fixed priority order; an error or a resolution without usable entities
// sends the orchestrator to the next resolver.
type QueryResolver interface {
	Resolve(ctx context.Context, question string, history []models.ChatMessage) (*Resolution, error)
}

// aiResolver resolves questions through LLM query understanding.
type aiResolver struct {
	client ai.Client
}

func (r *aiResolver) Resolve(ctx context.Context, question string, history []models.ChatMessage) (*Resolution, error) {
	understanding, err := r.client.UnderstandQuestion(ctx, question, history)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		Relevant:   understanding.Relevant,
		Subject:    understanding.Subject,
		CatalogNbr: understanding.CatalogNbr,
		Intent:     understanding.Intent,
		TermSeason: understanding.TermSeason,
		TermYear:   understanding.TermYear,
	}, nil
}

// heuristicResolver resolves questions through the regex parser. It never
// fails and always marks the question relevant.
type heuristicResolver struct {
	parser *parser.Parser
}

func (r *heuristicResolver) Resolve(_ context.Context, question string, _ []models.ChatMessage) (*Resolution, error) {
	parsed := r.parser.Parse(question)
	return &Resolution{
		Relevant:   true,
		Subject:    parsed.Subject,
		CatalogNbr: parsed.CatalogNbr,
		Intent:     parsed.Intent,
		TitleQuery: parsed.TitleQuery,
		Temporal:   r.parser.IsTemporalQuery(question),
	}, nil
}
