// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command skillbroker runs the irrigation demonstration domain through
// the Skill Broker Engine for a configurable number of simulated years,
// writing an audit trace and optionally exposing a status HTTP server.
//
// Usage:
//
//	skillbroker run --config config.yaml
//	skillbroker validate --config config.yaml
//	skillbroker version
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/skillbroker/skillbroker/pkg/audit"
	"github.com/skillbroker/skillbroker/pkg/broker"
	"github.com/skillbroker/skillbroker/pkg/config"
	"github.com/skillbroker/skillbroker/pkg/logging"
	"github.com/skillbroker/skillbroker/pkg/reflection"
	"github.com/skillbroker/skillbroker/pkg/server"
	"github.com/skillbroker/skillbroker/pkg/telemetry"

	"github.com/skillbroker/skillbroker/examples/irrigation"
)

// CLI defines the command-line interface.
type CLI struct {
	Run      RunCmd      `cmd:"" help:"Run the irrigation demo simulation."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`
	Schema   SchemaCmd   `cmd:"" help:"Emit a JSON Schema for the process configuration."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	Config   string `short:"c" help:"Path to config file." type:"path" default:"config.yaml"`
	LogLevel string `help:"Log level (debug, info, warn, error); overrides the config file."`
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
	fmt.Printf("skillbroker %s\n", version)
	return nil
}

// ValidateCmd loads and decodes a config file without running anything,
// surfacing YAML/decoding errors before a long simulation run hits them.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	fmt.Printf("config %q is valid: memory mode=%s, max_retries=%d\n", cli.Config, cfg.Memory.Mode, cfg.Broker.MaxRetries)
	return nil
}

// RunCmd drives the irrigation demo for a fixed number of years across a
// small roster of farmer agents.
type RunCmd struct {
	Years  int `help:"Number of simulated years to run." default:"10"`
	Agents int `help:"Number of farmer agents to simulate." default:"5"`
}

func (c *RunCmd) Run(cli *CLI) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if cli.LogLevel != "" {
		level = cli.LogLevel
	}
	logger := logging.Init(logging.ParseLevel(level), os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	sinks, err := buildAuditSinks(cfg.Audit)
	if err != nil {
		return fmt.Errorf("failed to build audit sinks: %w", err)
	}
	writer := audit.NewWriter(sinks...)
	defer func() {
		if err := writer.Finalize(); err != nil {
			logger.Error("failed to finalize audit summary", "error", err)
		}
	}()

	metrics := telemetry.NewMetrics(cfg.Telemetry.Enabled)
	tracerProvider, err := telemetry.InitTracerProvider(ctx, telemetry.TracerConfig{
		Enabled:      cfg.Telemetry.Enabled,
		ServiceName:  cfg.Telemetry.ServiceName,
		SamplingRate: 1.0,
	})
	if err != nil {
		return fmt.Errorf("failed to init tracer: %w", err)
	}
	tracer := tracerProvider.Tracer("skillbroker/cmd")

	engine, err := irrigation.New(irrigation.Config{
		Drought: map[int]float64{},
		Seed:    1,
	})
	if err != nil {
		return fmt.Errorf("failed to build irrigation engine: %w", err)
	}
	engine.Audit = writer
	engine.Metrics = metrics
	engine.Tracer = tracer
	engine.Logger = logger
	engine.Config = cfg.Broker.ToBrokerConfig()

	reflector := &reflection.Engine{
		Memory:  engine.Context.Memory,
		Invoker: engine.Invoker,
		Config:  cfg.Reflection.ToReflectionConfig(),
		Logger:  logger,
	}

	if cfg.Server.Enabled {
		srv := &server.Server{Audit: writer, Metrics: metrics, Tracer: tracer, Logger: logger}
		go func() {
			if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
				logger.Error("status server stopped", "error", err)
			}
		}()
	}

	agents := seedAgents(c.Agents)
	for year := 1; year <= c.Years; year++ {
		select {
		case <-ctx.Done():
			logger.Info("run interrupted", "completed_years", year-1)
			return nil
		default:
		}

		for i := range agents {
			result := engine.RunStep(agents[i], year)
			if result.Err != nil {
				logger.Error("agent step failed", "agent", agents[i].ID, "year", year, "error", result.Err)
				continue
			}
		}

		if reflector.ShouldRun(year) {
			ids := make([]string, len(agents))
			for i, a := range agents {
				ids[i] = a.ID
			}
			reflector.Run(ids, year)
		}
		logger.Info("year complete", "year", year)
	}

	logger.Info("simulation finished", "years", c.Years, "agents", c.Agents)
	return nil
}

func buildAuditSinks(cfg config.AuditConfig) ([]audit.Sink, error) {
	tracePath := cfg.TracePath
	if tracePath == "" {
		tracePath = "audit_trace.jsonl"
	}
	summaryPath := cfg.SummaryPath
	if summaryPath == "" {
		summaryPath = "audit_summary.json"
	}
	fileSink, err := audit.NewFileSink(tracePath, summaryPath)
	if err != nil {
		return nil, err
	}
	sinks := []audit.Sink{fileSink}

	if cfg.SQLitePath != "" {
		sqliteSink, err := audit.NewSQLiteSink(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sqliteSink)
	}
	return sinks, nil
}

func seedAgents(n int) []broker.AgentProfile {
	if n <= 0 {
		n = 1
	}
	rng := rand.New(rand.NewSource(42))
	agents := make([]broker.AgentProfile, n)
	for i := range agents {
		agents[i] = broker.AgentProfile{
			ID:        fmt.Sprintf("farmer-%d", i+1),
			AgentType: "farmer",
			Attributes: map[string]any{
				"water_level": 0.4 + rng.Float64()*0.5,
				"income":      0.2 + rng.Float64()*0.6,
				"trust":       0.2 + rng.Float64()*0.6,
			},
		}
	}
	return agents
}

func run() error {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("skillbroker"),
		kong.Description("Governance middleware between LLM agents and an agent-based simulation."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
	return err
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}
