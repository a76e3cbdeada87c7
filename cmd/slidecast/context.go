package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"slidecast/internal/config"
	"slidecast/internal/ledger"
	"slidecast/internal/logging"
	"slidecast/internal/versioning"
	"slidecast/internal/workspace"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// commandLogger writes to stderr so tables and JSON on stdout stay clean.
func (c *commandContext) commandLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		level, format := "warn", "console"
		if cfg != nil {
			format = cfg.Logging.Format
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			level = strings.TrimSpace(*c.logLevelFlag)
		}
		logger, err := logging.New(logging.Options{
			Level:            level,
			Format:           format,
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
		})
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) workspace() *workspace.Workspace {
	return workspace.New(c.configValue().Paths.WorkspaceDir)
}

func (c *commandContext) versionManager() *versioning.Manager {
	return versioning.NewManager(logging.NewComponentLogger(c.commandLogger(), "versioning"))
}

func (c *commandContext) withLedger(fn func(*ledger.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// resolveUnit maps "<document> <index>" arguments to an existing unit.
func (c *commandContext) resolveUnit(document, index string) (workspace.Unit, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(index), workspace.UnitPrefix))
	if err != nil || n < 0 {
		return workspace.Unit{}, fmt.Errorf("invalid unit %q: use the scene number, e.g. 3 or scene_0003", index)
	}
	return c.workspace().Unit(document, n)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func refused(cmd *cobra.Command, format string, args ...any) error {
	fmt.Fprintf(cmd.OutOrStdout(), "refused: "+format+"\n", args...)
	return nil
}
