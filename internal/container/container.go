// Package container provides dependency injection for the mineral-tax application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"fmt"
	"time"

	"ndjaka/mineral-tax/internal/api"
	"ndjaka/mineral-tax/internal/api/metrics"
	"ndjaka/mineral-tax/internal/batch"
	"ndjaka/mineral-tax/internal/config"
	"ndjaka/mineral-tax/internal/fuelentry"
	"ndjaka/mineral-tax/internal/logging"
	"ndjaka/mineral-tax/internal/parser"
	"ndjaka/mineral-tax/internal/report"
	"ndjaka/mineral-tax/internal/store"
	"ndjaka/mineral-tax/internal/taxrate"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	table      *taxrate.Table
	resolver   *taxrate.Resolver
	calculator *taxrate.Calculator
	machines   *store.MachineStore
	parser     parser.FullParser
	generator  *report.Generator
	aggregator *batch.Aggregator
	processor  *batch.Processor
	metrics    *metrics.Metrics
}

// NewContainer creates and wires all application dependencies, logging
// through a logrus adapter built from cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(cfg, config.ConfigureLoggingFromConfig(cfg))
}

// NewContainerWithLogger is NewContainer with an explicit logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = config.ConfigureLoggingFromConfig(cfg)
	}

	table := taxrate.DefaultTable()
	if cfg.Rates.TableFile != "" {
		loaded, err := taxrate.LoadTableFile(cfg.Rates.TableFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load rate table: %w", err)
		}
		table = loaded
	}
	logger.Debug("Rate table ready",
		logging.F(logging.FieldTable, table.Version()),
		logging.F(logging.FieldCount, table.Len()))

	resolver := taxrate.NewResolver(table)
	calculator := taxrate.NewCalculator(resolver)

	machines := store.NewMachineStore(cfg.Data.MachinesFile, logger)
	if _, err := machines.Load(); err != nil {
		return nil, fmt.Errorf("failed to load machine registry: %w", err)
	}

	entryParser := fuelentry.NewParser(logger, cfg.Delimiter(), fuelentry.WithStrict(cfg.CSV.Strict))

	generator := report.NewGenerator(logger, calculator, machines)
	generator.SetDelimiter(cfg.Delimiter())

	logger.Info("Container initialized successfully",
		logging.F(logging.FieldTable, table.Version()),
		logging.F("machines", len(machines.Machines())),
		logging.F(logging.FieldDelimiter, string(cfg.Delimiter())),
		logging.F("strict", cfg.CSV.Strict))

	return &Container{
		logger:     logger,
		config:     cfg,
		table:      table,
		resolver:   resolver,
		calculator: calculator,
		machines:   machines,
		parser:     entryParser,
		generator:  generator,
		aggregator: batch.NewAggregator(logger),
		processor:  batch.NewProcessor(entryParser, logger, cfg.Batch.Workers),
		metrics:    metrics.New(),
	}, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetRateTable returns the rule table in use.
func (c *Container) GetRateTable() *taxrate.Table {
	return c.table
}

// GetResolver returns the rate resolver.
func (c *Container) GetResolver() *taxrate.Resolver {
	return c.resolver
}

// GetCalculator returns the reimbursement calculator.
func (c *Container) GetCalculator() *taxrate.Calculator {
	return c.calculator
}

// GetMachineStore returns the loaded machine registry.
func (c *Container) GetMachineStore() *store.MachineStore {
	return c.machines
}

// GetParser returns the fuel-entry parser.
func (c *Container) GetParser() parser.FullParser {
	return c.parser
}

// GetReportGenerator returns the report generator.
func (c *Container) GetReportGenerator() *report.Generator {
	return c.generator
}

// GetAggregator returns the period aggregator.
func (c *Container) GetAggregator() *batch.Aggregator {
	return c.aggregator
}

// GetBatchProcessor returns the directory processor.
func (c *Container) GetBatchProcessor() *batch.Processor {
	return c.processor
}

// NewAPIHandler builds the HTTP handler over the container's components.
func (c *Container) NewAPIHandler() *api.Handler {
	return api.New(c.generator, c.resolver, c.logger, c.metrics)
}

// GetServerConfig converts the server section of the configuration.
func (c *Container) GetServerConfig() api.ServerConfig {
	return api.ServerConfig{
		Address:      c.config.Server.Address,
		ReadTimeout:  time.Duration(c.config.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(c.config.Server.WriteTimeoutSeconds) * time.Second,
	}
}

// Close performs cleanup of container resources.
func (c *Container) Close() error {
	c.logger.Debug("Container closed")
	return nil
}
