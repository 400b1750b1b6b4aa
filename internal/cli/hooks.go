package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/juliaset/pkg/observability"
)

// debugHooks logs observability events at debug level.
type debugHooks struct {
	logger *log.Logger
}

// installHooks registers debugHooks for generator, spill and cache events.
func installHooks(l *log.Logger) {
	h := debugHooks{logger: l}
	observability.SetGeneratorHooks(h)
	observability.SetSpillHooks(h)
	observability.SetCacheHooks(h)
}

func (h debugHooks) OnGenerateStart(_ context.Context, outputType string, functions int) {
	h.logger.Debug("generate start", "type", outputType, "functions", functions)
}

func (h debugHooks) OnGenerateComplete(_ context.Context, outputType string, points int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("generate failed", "type", outputType, "elapsed", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("generate done", "type", outputType, "points", points, "elapsed", d.Round(time.Millisecond))
}

func (h debugHooks) OnSpill(_ context.Context, id int64, points int, d time.Duration, err error) {
	h.logger.Debug("spill", "set", id, "points", points, "elapsed", d.Round(time.Millisecond), "err", err)
}

func (h debugHooks) OnReload(_ context.Context, id int64, points int, d time.Duration, err error) {
	h.logger.Debug("reload", "set", id, "points", points, "elapsed", d.Round(time.Millisecond), "err", err)
}

func (h debugHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "key", keyType)
}

func (h debugHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "key", keyType)
}

func (h debugHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "key", keyType, "bytes", size)
}
