package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/dyike/CortexDash/internal/history"
	"github.com/dyike/CortexDash/models"
)

type action string

const (
	actionAsk        action = "💬 Ask a question"
	actionMetric     action = "📈 View a metric"
	actionInsights   action = "📊 Key financial insights"
	actionTranscript action = "📝 Show conversation"
	actionSwitch     action = "🏢 Switch company"
	actionClear      action = "🧹 Clear session"
	actionRecent     action = "🕘 Recent analyses"
	actionExit       action = "🚪 Exit"
)

var actions = []action{
	actionAsk,
	actionMetric,
	actionInsights,
	actionTranscript,
	actionSwitch,
	actionClear,
	actionRecent,
	actionExit,
}

// prompter is what the dashboard needs from the terminal.
type prompter interface {
	SelectCompany(companies []models.Company, current models.CompanyKey) (models.Company, error)
	SelectAction() (action, error)
	SelectMetric(metrics []models.Metric) (models.Metric, error)
	Question() (string, error)
	Confirm(message string) (bool, error)
	SelectRecent(list []history.Summary, catalog *models.Catalog) (int, error)
}

type surveyPrompter struct{}

// SelectCompany prompts the user to pick the company to analyze
func (surveyPrompter) SelectCompany(companies []models.Company, current models.CompanyKey) (models.Company, error) {
	options := make([]string, 0, len(companies))
	def := ""
	for _, co := range companies {
		options = append(options, co.Name)
		if co.Key == current {
			def = co.Name
		}
	}

	prompt := &survey.Select{
		Message: "Select a company:",
		Options: options,
		Help:    "Switching company starts a new analysis session.",
	}
	if def != "" {
		prompt.Default = def
	}

	var selected int
	if err := survey.AskOne(prompt, &selected); err != nil {
		return models.Company{}, err
	}
	return companies[selected], nil
}

// SelectAction prompts for the next dashboard action
func (surveyPrompter) SelectAction() (action, error) {
	options := make([]string, 0, len(actions))
	for _, a := range actions {
		options = append(options, string(a))
	}

	var selected string
	err := survey.AskOne(&survey.Select{
		Message:  "What would you like to do?",
		Options:  options,
		PageSize: len(options),
	}, &selected)
	if err != nil {
		return "", err
	}
	return action(selected), nil
}

// SelectMetric prompts for one financial metric
func (surveyPrompter) SelectMetric(metrics []models.Metric) (models.Metric, error) {
	options := make([]string, 0, len(metrics))
	for _, m := range metrics {
		options = append(options, m.Label)
	}

	var selected int
	err := survey.AskOne(&survey.Select{
		Message:  "Select a metric:",
		Options:  options,
		PageSize: len(options),
	}, &selected)
	if err != nil {
		return models.Metric{}, err
	}
	return metrics[selected], nil
}

// Question prompts for a financial question
func (surveyPrompter) Question() (string, error) {
	var q string
	prompt := &survey.Input{
		Message: "Ask a financial question:",
		Help:    "e.g. What was the operating margin trend over the last three years?",
	}
	err := survey.AskOne(prompt, &q, survey.WithValidator(func(val interface{}) error {
		str, ok := val.(string)
		if !ok {
			return fmt.Errorf("invalid input")
		}
		if strings.TrimSpace(str) == "" {
			return fmt.Errorf("question cannot be empty")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(q), nil
}

// Confirm asks a yes/no question
func (surveyPrompter) Confirm(message string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok)
	return ok, err
}

// SelectRecent lets the user open one recorded conversation. It returns -1
// when the user goes back.
func (surveyPrompter) SelectRecent(list []history.Summary, catalog *models.Catalog) (int, error) {
	options := make([]string, 0, len(list)+1)
	for _, s := range list {
		name := string(s.Company)
		if co, ok := catalog.Company(s.Company); ok {
			name = co.Name
		}
		options = append(options, fmt.Sprintf("%s - %s (%d queries)", s.CreatedAt.Format("15:04:05"), name, s.Queries))
	}
	options = append(options, "⬅ Back")

	var selected int
	if err := survey.AskOne(&survey.Select{Message: "Open a conversation:", Options: options}, &selected); err != nil {
		return -1, err
	}
	if selected == len(list) {
		return -1, nil
	}
	return selected, nil
}

func isInterrupt(err error) bool {
	return errors.Is(err, terminal.InterruptErr)
}
