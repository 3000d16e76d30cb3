// Package root contains the root command for the application
package root

import (
	"fmt"
	"strings"

	"ndjaka/mineral-tax/internal/config"
	"ndjaka/mineral-tax/internal/container"
	"ndjaka/mineral-tax/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input    string
	Output   string
	Validate bool
}

// ConfigFlags override values from the configuration file and environment.
type ConfigFlags struct {
	ConfigFile   string
	LogLevel     string
	LogFormat    string
	CSVDelimiter string
	Strict       bool
	MachinesFile string
	RateTable    string
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "mineral-tax",
		Short: "Prepare Swiss mineral-oil-tax reimbursement claims from fuel invoices.",
		Long: `mineral-tax computes mineral-oil-tax reimbursements for fuel bought for
eligible activities. Rates depend on the invoice date (before or after the
1 January 2026 reform), the declared activity and the fuel type.

It reads fuel-entry CSV exports, resolves each entry's activity from the
entry itself or the machine registry, and produces CSV, JSON or XML claims.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to mineral-tax!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: initialize,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appContainer != nil {
				if err := appContainer.Close(); err != nil {
					Log.WithError(err).Warn("Failed to close container")
				}
			}
		},
	}

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}

	// Overrides are the configuration flags
	Overrides = ConfigFlags{}

	appContainer *container.Container
)

// Init initializes the root command and all flags
func Init() {
	pf := Cmd.PersistentFlags()
	if pf.Lookup("input") != nil {
		return
	}
	pf.StringVarP(&SharedFlags.Input, "input", "i", "", "Input file")
	pf.StringVarP(&SharedFlags.Output, "output", "o", "", "Output file")
	pf.BoolVarP(&SharedFlags.Validate, "validate", "v", false, "Validate file format before processing")

	pf.StringVar(&Overrides.ConfigFile, "config", "", "Configuration file (default: search ~/.mineral-tax, .mineral-tax, .)")
	pf.StringVar(&Overrides.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&Overrides.LogFormat, "log-format", "", "Log format (text, json)")
	pf.StringVar(&Overrides.CSVDelimiter, "csv-delimiter", "", "CSV delimiter for input and output")
	pf.BoolVar(&Overrides.Strict, "strict", false, "Reject input files with malformed rows")
	pf.StringVar(&Overrides.MachinesFile, "machines", "", "Machine registry file")
	pf.StringVar(&Overrides.RateTable, "rate-table", "", "YAML rate table replacing the built-in one")
}

// LoadConfig reads the configuration and applies the flags that were set.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	if _, err := config.LoadEnv(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	var cfg *config.Config
	var err error
	if Overrides.ConfigFile != "" {
		cfg, err = config.InitializeConfigFromFile(Overrides.ConfigFile)
	} else {
		cfg, err = config.InitializeConfig()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = strings.ToLower(Overrides.LogLevel)
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = strings.ToLower(Overrides.LogFormat)
	}
	if flags.Changed("csv-delimiter") {
		cfg.CSV.Delimiter = Overrides.CSVDelimiter
	}
	if flags.Changed("strict") {
		cfg.CSV.Strict = Overrides.Strict
	}
	if flags.Changed("machines") {
		cfg.Data.MachinesFile = Overrides.MachinesFile
	}
	if flags.Changed("rate-table") {
		cfg.Rates.TableFile = Overrides.RateTable
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initialize(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	SetContainer(c)
	return nil
}

// SetContainer installs the container used by the subcommands.
func SetContainer(c *container.Container) {
	appContainer = c
	if c != nil {
		Log = c.GetLogger()
	}
}

// GetContainer returns the container built for the running command.
func GetContainer() (*container.Container, error) {
	if appContainer == nil {
		return nil, fmt.Errorf("container not initialized")
	}
	return appContainer, nil
}
