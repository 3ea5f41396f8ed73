// Package chat talks to the backend's question-answering endpoints and keeps
// each session's transcript in request order.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dyike/CortexDash/internal/backend"
	"github.com/dyike/CortexDash/models"
)

// ErrStaleSession is returned when an answer arrives after its session was
// closed or rotated. The answer is dropped.
var ErrStaleSession = errors.New("answer arrived for a stale session")

// ErrSessionClosed is returned for calls on a closed session.
var ErrSessionClosed = models.ErrSessionClosed

// Recorder observes transcript changes. Failures are logged, never returned.
type Recorder interface {
	SessionStarted(ctx context.Context, s *models.Session) error
	TurnAppended(ctx context.Context, s *models.Session, t models.Turn) error
	SessionCleared(ctx context.Context, s *models.Session) error
}

type Client struct {
	transport backend.Transport
	catalog   *models.Catalog
	askPath   string
	clearPath string
	recorder  Recorder
	log       logrus.FieldLogger
}

type Option func(*Client)

func WithPaths(askPath, clearPath string) Option {
	return func(c *Client) {
		if askPath != "" {
			c.askPath = askPath
		}
		if clearPath != "" {
			c.clearPath = clearPath
		}
	}
}

func WithCatalog(catalog *models.Catalog) Option {
	return func(c *Client) {
		if catalog != nil {
			c.catalog = catalog
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(transport backend.Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		catalog:   models.DefaultCatalog(),
		askPath:   "/ask",
		clearPath: "/clear_session",
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "chat")
	return c
}

// NewSession starts a conversation about company.
func (c *Client) NewSession(ctx context.Context, company models.CompanyKey) (*models.Session, error) {
	if _, ok := c.catalog.Company(company); !ok {
		return nil, &backend.ValidationError{Field: "company", Reason: fmt.Sprintf("unknown company %q", company)}
	}
	s := models.NewSession(company)
	c.record(func() error { return c.recorder.SessionStarted(ctx, s) })
	c.log.WithFields(logrus.Fields{"session_id": s.ID, "company": company}).Debug("session started")
	return s, nil
}

// RotateSession closes s and starts a fresh session for company. Answers
// still in flight for s are discarded when they arrive.
func (c *Client) RotateSession(ctx context.Context, s *models.Session, company models.CompanyKey) (*models.Session, error) {
	next, err := c.NewSession(ctx, company)
	if err != nil {
		return nil, err
	}
	if s != nil {
		s.Close()
	}
	return next, nil
}

// Ask sends question to the backend and appends the exchange to the
// transcript. The user turn is recorded before the request goes out and is
// not removed if the request fails. Concurrent calls on one session wait for
// each other.
func (c *Client) Ask(ctx context.Context, s *models.Session, question string) (models.BotTurn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.BotTurn{}, &backend.ValidationError{Field: "question", Reason: "question cannot be empty"}
	}
	if s == nil {
		return models.BotTurn{}, &backend.ValidationError{Field: "session", Reason: "no active session"}
	}
	if _, ok := c.catalog.Company(s.Company); !ok {
		return models.BotTurn{}, &backend.ValidationError{Field: "company", Reason: fmt.Sprintf("unknown company %q", s.Company)}
	}

	release, err := s.AcquireTurn(ctx)
	if err != nil {
		return models.BotTurn{}, err
	}
	defer release()

	user := models.UserTurn{Text: question}
	gen, err := s.Begin(user)
	if err != nil {
		return models.BotTurn{}, err
	}
	c.record(func() error { return c.recorder.TurnAppended(ctx, s, user) })

	log := c.log.WithFields(logrus.Fields{"session_id": s.ID, "company": s.Company})
	op := http.MethodPost + " " + c.askPath

	resp, err := c.transport.PostJSON(ctx, c.askPath, askRequest{
		Question:  question,
		SessionID: s.ID,
		Company:   string(s.Company),
	})
	if err != nil {
		return models.BotTurn{}, err
	}

	bot, err := decodeAnswer(log, op, resp)
	if err != nil {
		return models.BotTurn{}, err
	}

	if !s.Complete(gen, bot) {
		log.Debug("discarding answer for stale session")
		return models.BotTurn{}, ErrStaleSession
	}
	c.record(func() error { return c.recorder.TurnAppended(ctx, s, bot) })

	log.WithField("sources", len(bot.Sources)).Debug("answer received")
	return bot, nil
}

// ClearSession asks the backend to drop its state for s and empties the local
// transcript once it confirms. On failure the transcript is left as is.
func (c *Client) ClearSession(ctx context.Context, s *models.Session) error {
	if s == nil {
		return &backend.ValidationError{Field: "session", Reason: "no active session"}
	}
	if s.Closed() {
		return ErrSessionClosed
	}

	release, err := s.AcquireTurn(ctx)
	if err != nil {
		return err
	}
	defer release()

	if _, err := c.transport.PostJSON(ctx, c.clearPath, clearRequest{SessionID: s.ID}); err != nil {
		return err
	}

	s.Reset()
	c.record(func() error { return c.recorder.SessionCleared(ctx, s) })
	c.log.WithField("session_id", s.ID).Debug("session cleared")
	return nil
}

func (c *Client) record(fn func() error) {
	if c.recorder == nil {
		return
	}
	if err := fn(); err != nil {
		c.log.WithError(err).Warn("history recorder failed")
	}
}
