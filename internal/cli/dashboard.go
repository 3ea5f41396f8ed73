package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dyike/CortexDash/config"
	"github.com/dyike/CortexDash/internal/chat"
	"github.com/dyike/CortexDash/models"
)

// dashboard is the interactive session: one active company and session at a
// time, driven by menu prompts.
type dashboard struct {
	app     *app
	prompt  prompter
	out     io.Writer
	company models.Company
	session *models.Session
}

func (st *rootState) runDashboard(cmd *cobra.Command, a *app) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	err := st.manager.Watch(ctx, func(_, next config.Config) {
		a.reconfigure(st.effective(next))
	})
	if err != nil {
		a.log.WithError(err).Warn("config watch unavailable")
	}

	d := &dashboard{app: a, prompt: surveyPrompter{}, out: cmd.OutOrStdout()}
	return d.run(ctx)
}

func (d *dashboard) run(ctx context.Context) error {
	fmt.Fprintln(d.out, d.app.render.Banner())

	co, err := d.app.company("")
	if err != nil {
		return err
	}
	co, err = d.prompt.SelectCompany(d.app.catalog.Companies(), co.Key)
	if err != nil {
		return quit(err)
	}
	if err := d.start(ctx, co); err != nil {
		return err
	}
	fmt.Fprintln(d.out, d.app.render.Tips())

	for {
		fmt.Fprintln(d.out)
		fmt.Fprintln(d.out, d.app.render.Header(d.company))

		act, err := d.prompt.SelectAction()
		if err != nil {
			return quit(err)
		}
		if act == actionExit {
			fmt.Fprintln(d.out, "👋 Thank you for using CortexDash!")
			return nil
		}
		if err := d.handle(ctx, act); err != nil {
			if isInterrupt(err) {
				continue
			}
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(d.out, d.app.render.Error(err))
		}
	}
}

func (d *dashboard) handle(ctx context.Context, act action) error {
	switch act {
	case actionAsk:
		return d.ask(ctx)
	case actionMetric:
		return d.metric(ctx)
	case actionInsights:
		d.progress()
		fmt.Fprintln(d.out, d.app.insights(ctx, d.company.Key))
	case actionTranscript:
		fmt.Fprintln(d.out, d.app.render.Transcript(d.session.Transcript()))
	case actionSwitch:
		return d.switchCompany(ctx)
	case actionClear:
		return d.clear(ctx)
	case actionRecent:
		return d.recent(ctx)
	}
	return nil
}

func (d *dashboard) start(ctx context.Context, co models.Company) error {
	s, err := d.app.chatClient().RotateSession(ctx, d.session, co.Key)
	if err != nil {
		return err
	}
	d.company = co
	d.session = s
	return nil
}

func (d *dashboard) ask(ctx context.Context) error {
	q, err := d.prompt.Question()
	if err != nil {
		return err
	}
	fmt.Fprintln(d.out, d.app.render.Turn(models.UserTurn{Text: q}))
	d.progress()

	bot, err := d.app.chatClient().Ask(ctx, d.session, q)
	if errors.Is(err, chat.ErrStaleSession) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(d.out, d.app.render.Turn(bot))
	return nil
}

func (d *dashboard) metric(ctx context.Context) error {
	m, err := d.prompt.SelectMetric(d.app.catalog.Metrics())
	if err != nil {
		return err
	}
	d.progress()
	series, err := d.app.metricsClient().FetchMetric(ctx, d.company.Key, m.Key)
	if err != nil {
		return err
	}
	fmt.Fprintln(d.out, d.app.render.MetricView(m, series))
	return nil
}

func (d *dashboard) switchCompany(ctx context.Context) error {
	co, err := d.prompt.SelectCompany(d.app.catalog.Companies(), d.company.Key)
	if err != nil {
		return err
	}
	if co.Key == d.company.Key {
		return nil
	}
	if err := d.start(ctx, co); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "✅ Started a new analysis of %s\n", co.Name)
	return nil
}

func (d *dashboard) clear(ctx context.Context) error {
	ok, err := d.prompt.Confirm("Clear the conversation for this session?")
	if err != nil || !ok {
		return err
	}
	d.progress()
	if err := d.app.chatClient().ClearSession(ctx, d.session); err != nil {
		return err
	}
	fmt.Fprintln(d.out, "✅ Session cleared")
	return nil
}

func (d *dashboard) recent(ctx context.Context) error {
	list, err := d.app.history.Recent(ctx, d.app.config().RecentLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(d.out, d.app.render.Recent(list, d.app.catalog, d.session.ID))
	if len(list) == 0 {
		return nil
	}

	idx, err := d.prompt.SelectRecent(list, d.app.catalog)
	if err != nil || idx < 0 {
		return err
	}
	turns, err := d.app.history.Turns(ctx, list[idx].SessionID)
	if err != nil {
		return err
	}
	fmt.Fprintln(d.out, d.app.render.Transcript(turns))
	return nil
}

func (d *dashboard) progress() {
	fmt.Fprintln(d.out, d.app.render.Progress(progressMessage))
}

// quit treats Ctrl-C at a top-level prompt as a normal exit.
func quit(err error) error {
	if isInterrupt(err) {
		return nil
	}
	return err
}
