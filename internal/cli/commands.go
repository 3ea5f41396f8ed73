package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dyike/CortexDash/internal/backend"
)

const progressMessage = "Preparing your response..."

// newAskCmd creates the ask command
func newAskCmd(st *rootState) *cobra.Command {
	var company string
	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask a question about a company's financial documents",
		Long: `Ask a single question in a fresh session and print the answer with its
source documents.
Example: cortexdash ask "What was revenue growth in 2023?" --company apple`,
		Args: cobra.MinimumNArgs(1),
		RunE: st.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			co, err := a.company(company)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client := a.chatClient()
			session, err := client.NewSession(ctx, co.Key)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.render.Header(co))
			fmt.Fprintln(cmd.ErrOrStderr(), a.render.Progress(progressMessage))

			bot, err := client.Ask(ctx, session, strings.Join(args, " "))
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), a.render.Error(err))
				return fmt.Errorf("ask: %w", err)
			}
			fmt.Fprintln(out, a.render.Turn(bot))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&company, "company", "c", "", "Company key or name (defaults to default_company)")
	return cmd
}

// newMetricCmd creates the metric command
func newMetricCmd(st *rootState) *cobra.Command {
	var (
		company string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "metric [METRIC]",
		Short: "Show a financial metric's yearly history",
		Long: `Fetch one metric and draw its yearly chart with the latest value and the
year-over-year change. With --all, show every metric as a card.
Example: cortexdash metric revenue --company nvidia`,
		Args: cobra.MaximumNArgs(1),
		RunE: st.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			co, err := a.company(company)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if all || len(args) == 0 {
				fmt.Fprintln(out, a.render.Header(co))
				fmt.Fprintln(out, a.insights(cmd.Context(), co.Key))
				return nil
			}

			m, ok := a.catalog.LookupMetric(args[0])
			if !ok {
				return &backend.ValidationError{Field: "metric", Reason: fmt.Sprintf("unknown metric %q", args[0])}
			}
			series, err := a.metricsClient().FetchMetric(cmd.Context(), co.Key, m.Key)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), a.render.Error(err))
				return fmt.Errorf("fetch %s: %w", m.Key, err)
			}
			fmt.Fprintln(out, a.render.Header(co))
			fmt.Fprintln(out, a.render.MetricView(m, series))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&company, "company", "c", "", "Company key or name (defaults to default_company)")
	cmd.Flags().BoolVar(&all, "all", false, "Show every metric")
	return cmd
}

// newInsightsCmd creates the insights command
func newInsightsCmd(st *rootState) *cobra.Command {
	var company string
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show key financial insights for a company",
		RunE: st.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			co, err := a.company(company)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.render.Header(co))
			fmt.Fprintln(out, a.insights(cmd.Context(), co.Key))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&company, "company", "c", "", "Company key or name (defaults to default_company)")
	return cmd
}

// newCompaniesCmd creates the companies command
func newCompaniesCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "companies",
		Short: "List the companies available for analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.loadConfig()
			if err != nil {
				return err
			}
			t := newTable("KEY", "NAME")
			for _, co := range catalogFor(cfg).Companies() {
				t.Row(string(co.Key), co.Name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

// newMetricsCmd creates the metrics command
func newMetricsCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the financial metrics the backend serves",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.loadConfig()
			if err != nil {
				return err
			}
			t := newTable("KEY", "LABEL")
			for _, m := range catalogFor(cfg).Metrics() {
				t.Row(string(m.Key), m.Label)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))).
		Headers(headers...)
}

// newConfigCmd creates the config command
func newConfigCmd(st *rootState) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Inspect, validate and edit CortexDash configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.loadConfig()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration invalid: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Configuration is valid")
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := st.loadConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.manager.Path())
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting in the configuration file",
		Long: `Change one setting by its JSON name and save the configuration file.
VALUE is read as JSON when it parses as JSON, otherwise as a string.
Example: cortexdash config set request_timeout_sec 60`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := st.loadConfig(); err != nil {
				return err
			}
			if err := st.manager.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Updated %s\n", args[0])
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Apply settings from a JSON file",
		Long: `Apply the settings in a JSON object file over the current configuration.
Settings the file leaves out are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := st.loadConfig(); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if err := st.manager.UpdateFromJSON(string(data)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %s\n", args[0])
			return nil
		},
	})

	return configCmd
}
