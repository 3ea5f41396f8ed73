package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyike/CortexDash/config"
)

const version = "v1.0.0"

// rootState carries the persistent flags and the lazily built app.
type rootState struct {
	configPath string
	backendURL string
	timeoutSec int
	debug      bool

	manager *config.Manager
	app     *app
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootState{})
}

func newRootCmd(st *rootState) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cortexdash",
		Short: "CortexDash - financial analyst dashboard",
		Long: `CortexDash is a terminal dashboard for asking questions about company
financial documents and browsing yearly financial metrics served by the
CortexDash analysis backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: st.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			return st.runDashboard(cmd, a)
		}),
	}

	rootCmd.AddCommand(newAskCmd(st))
	rootCmd.AddCommand(newMetricCmd(st))
	rootCmd.AddCommand(newInsightsCmd(st))
	rootCmd.AddCommand(newCompaniesCmd(st))
	rootCmd.AddCommand(newMetricsCmd(st))
	rootCmd.AddCommand(newConfigCmd(st))
	rootCmd.AddCommand(newVersionCmd())

	// Global flags
	rootCmd.PersistentFlags().StringVar(&st.configPath, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&st.backendURL, "backend-url", "", "Override the backend base URL")
	rootCmd.PersistentFlags().IntVar(&st.timeoutSec, "timeout", 0, "Override the request timeout in seconds")
	rootCmd.PersistentFlags().BoolVar(&st.debug, "debug", false, "Enable debug logging")

	return rootCmd
}

// loadConfig opens the config file and layers environment and flag
// overrides on top. The result is not validated.
func (st *rootState) loadConfig() (config.Config, error) {
	if st.manager == nil {
		m, err := config.NewManager(config.WithConfigPath(st.configPath))
		if err != nil {
			return config.Config{}, fmt.Errorf("load configuration: %w", err)
		}
		st.manager = m
	}
	return st.effective(st.manager.Get()), nil
}

func (st *rootState) effective(cfg config.Config) config.Config {
	cfg.ApplyEnv()
	if st.backendURL != "" {
		cfg.BackendURL = st.backendURL
	}
	if st.timeoutSec > 0 {
		cfg.RequestTimeoutSec = st.timeoutSec
	}
	if st.debug {
		cfg.Debug = true
	}
	return cfg
}

func (st *rootState) ensureApp() (*app, error) {
	if st.app != nil {
		return st.app, nil
	}
	cfg, err := st.loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg)
	if err != nil {
		return nil, err
	}
	st.app = a
	return a, nil
}

// withApp builds the app for run and closes it when run returns, whether or
// not run failed.
func (st *rootState) withApp(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := st.ensureApp()
		if err != nil {
			return err
		}
		defer func() {
			if cerr := st.closeApp(); err == nil {
				err = cerr
			}
		}()
		return run(cmd, args, a)
	}
}

func (st *rootState) closeApp() error {
	if st.app == nil {
		return nil
	}
	err := st.app.Close()
	st.app = nil
	return err
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "CortexDash %s\n", version)
			fmt.Fprintln(out, "Financial analyst dashboard")
		},
	}
}
