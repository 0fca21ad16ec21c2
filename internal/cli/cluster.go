package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/qx32"
	"github.com/aretw0/qx32/internal/config"
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/script"
)

// newCluster builds a Cluster from the configuration.
// The scripts file, when configured, replaces the built-in scripts.
func newCluster(cfg config.Config, logger *slog.Logger, hooks []domain.Hooks, extra ...qx32.Option) (*qx32.Cluster, error) {
	scripts := script.DefaultSet()
	if cfg.ScriptsFile != "" {
		set, err := script.LoadFile(cfg.ScriptsFile)
		if err != nil {
			return nil, fmt.Errorf("load scripts: %w", err)
		}
		scripts = set
		logger.Info("Scripts loaded", "path", cfg.ScriptsFile, "faults", len(set.Faults))
	}

	opts := []qx32.Option{
		qx32.WithLogger(logger),
		qx32.WithScripts(scripts),
		qx32.WithSessionOptions(cfg.SessionOptions()...),
	}
	for _, h := range hooks {
		opts = append(opts, qx32.WithHooks(h))
	}
	opts = append(opts, extra...)
	return qx32.New(opts...), nil
}
