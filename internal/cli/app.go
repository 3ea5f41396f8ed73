package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dyike/CortexDash/config"
	"github.com/dyike/CortexDash/internal/backend"
	"github.com/dyike/CortexDash/internal/chat"
	"github.com/dyike/CortexDash/internal/display"
	"github.com/dyike/CortexDash/internal/history"
	"github.com/dyike/CortexDash/internal/logger"
	"github.com/dyike/CortexDash/internal/metrics"
	"github.com/dyike/CortexDash/models"
)

// app wires the backend clients for one process. The clients are rebuilt
// when the config file changes; sessions survive a rebuild.
type app struct {
	mu      sync.RWMutex
	cfg     config.Config
	chat    *chat.Client
	metrics *metrics.Client

	catalog   *models.Catalog
	history   *history.Store
	render    *display.Renderer
	log       *logrus.Logger
	logCloser io.Closer
}

func newApp(cfg config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, closer, err := logger.New(&cfg)
	if err != nil {
		return nil, err
	}

	store, err := history.Open()
	if err != nil {
		closer.Close()
		return nil, err
	}

	a := &app{
		catalog:   catalogFor(cfg),
		history:   store,
		render:    display.NewRenderer(0),
		log:       log,
		logCloser: closer,
	}
	a.rebuild(cfg)
	return a, nil
}

func catalogFor(cfg config.Config) *models.Catalog {
	return cfg.Catalog()
}

func (a *app) rebuild(cfg config.Config) {
	transport := backend.NewClient(&cfg, a.log)

	chatClient := chat.NewClient(transport,
		chat.WithPaths(cfg.AskPath, cfg.ClearSessionPath),
		chat.WithCatalog(a.catalog),
		chat.WithRecorder(a.history),
		chat.WithLogger(a.log),
	)
	metricsClient := metrics.NewClient(transport, a.catalog,
		metrics.WithPath(cfg.FinancialDataPath),
		metrics.WithLogger(a.log),
	)

	a.mu.Lock()
	a.cfg = cfg
	a.chat = chatClient
	a.metrics = metricsClient
	a.mu.Unlock()

	a.log.WithFields(logrus.Fields{
		"backend_url": transport.BaseURL(),
		"timeout":     cfg.RequestTimeout(),
	}).Debug("backend clients ready")
}

// reconfigure applies a reloaded config, including the log level and log
// file. The company catalog is fixed for the lifetime of the process.
func (a *app) reconfigure(next config.Config) {
	if err := next.Validate(); err != nil {
		a.log.WithError(err).Warn("ignoring invalid configuration")
		return
	}
	switch lvl, err := logrus.ParseLevel(next.LogLevel); {
	case next.Debug:
		a.log.SetLevel(logrus.DebugLevel)
	case err == nil:
		a.log.SetLevel(lvl)
	}
	if next.LogFile != a.config().LogFile {
		a.redirectLog(next.LogFile)
	}
	a.rebuild(next)
	a.log.Info("configuration reloaded")
}

func (a *app) redirectLog(path string) {
	closer, err := logger.SetOutput(a.log, path)
	if err != nil {
		a.log.WithError(err).WithField("log_file", path).Warn("keeping previous log output")
		return
	}
	a.mu.Lock()
	prev := a.logCloser
	a.logCloser = closer
	a.mu.Unlock()
	prev.Close()
}

func (a *app) config() config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

func (a *app) chatClient() *chat.Client {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.chat
}

func (a *app) metricsClient() *metrics.Client {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.metrics
}

// company resolves name against the catalog, falling back to the configured
// default when name is empty.
func (a *app) company(name string) (models.Company, error) {
	if name == "" {
		name = a.config().DefaultCompany
	}
	co, ok := a.catalog.LookupCompany(name)
	if !ok {
		return models.Company{}, &backend.ValidationError{Field: "company", Reason: fmt.Sprintf("unknown company %q", name)}
	}
	return co, nil
}

func (a *app) insights(ctx context.Context, company models.CompanyKey) string {
	list := a.catalog.Metrics()
	keys := make([]models.MetricKey, 0, len(list))
	for _, m := range list {
		keys = append(keys, m.Key)
	}
	results := a.metricsClient().FetchAll(ctx, company, keys)
	return a.render.Insights(list, results)
}

func (a *app) Close() error {
	a.mu.RLock()
	closer := a.logCloser
	a.mu.RUnlock()

	err := a.history.Close()
	if cerr := closer.Close(); err == nil {
		err = cerr
	}
	return err
}
