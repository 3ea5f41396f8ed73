package chat

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dyike/CortexDash/internal/backend"
	"github.com/dyike/CortexDash/models"
)

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	Company   string `json:"company"`
}

type clearRequest struct {
	SessionID string `json:"session_id"`
}

// Pointers distinguish absent fields from zero values.
type askResponse struct {
	Answer *answerPayload `json:"answer"`
}

type answerPayload struct {
	Answer          *string           `json:"answer"`
	SourceDocuments *[]sourceDocument `json:"source_documents"`
}

type sourceDocument struct {
	Filename    *string `json:"filename"`
	PageNumber  *int    `json:"page_number"`
	PageContent *string `json:"page_content"`
}

func decodeAnswer(log logrus.FieldLogger, op string, resp *backend.Response) (models.BotTurn, error) {
	var out askResponse
	if err := backend.Decode(log, op, resp, &out); err != nil {
		return models.BotTurn{}, err
	}

	switch {
	case out.Answer == nil:
		return models.BotTurn{}, backend.Malformed(log, backend.Missing(op, "answer"))
	case out.Answer.Answer == nil:
		return models.BotTurn{}, backend.Malformed(log, backend.Missing(op, "answer.answer"))
	case out.Answer.SourceDocuments == nil:
		return models.BotTurn{}, backend.Malformed(log, backend.Missing(op, "answer.source_documents"))
	}

	docs := *out.Answer.SourceDocuments
	sources := make([]models.SourceRef, 0, len(docs))
	for i, doc := range docs {
		field := func(name string) string {
			return fmt.Sprintf("answer.source_documents[%d].%s", i, name)
		}
		switch {
		case doc.Filename == nil:
			return models.BotTurn{}, backend.Malformed(log, backend.Missing(op, field("filename")))
		case doc.PageNumber == nil:
			return models.BotTurn{}, backend.Malformed(log, backend.Missing(op, field("page_number")))
		case *doc.PageNumber < 1:
			return models.BotTurn{}, backend.Malformed(log, &backend.MalformedResponseError{
				Op:    op,
				Field: field("page_number"),
				Err:   fmt.Errorf("page number %d is not 1-based", *doc.PageNumber),
			})
		case doc.PageContent == nil:
			return models.BotTurn{}, backend.Malformed(log, backend.Missing(op, field("page_content")))
		}
		sources = append(sources, models.SourceRef{
			Filename:   *doc.Filename,
			PageNumber: *doc.PageNumber,
			Excerpt:    *doc.PageContent,
		})
	}

	return models.BotTurn{Text: *out.Answer.Answer, Sources: sources}, nil
}
