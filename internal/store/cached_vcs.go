package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/refstudy/purity-cli/internal/gitx"
)

// CachedVCS wraps a VCS so Diff hits the cache first. Cache errors degrade to
// a direct VCS call; the cache is an accelerator, never a dependency.
type CachedVCS struct {
	gitx.VCS
	Cache *DiffCache
}

// Diff returns the cached diff when present, otherwise computes and stores it.
func (c *CachedVCS) Diff(ctx context.Context, repo, from, to string) (string, error) {
	if diff, ok, err := c.Cache.Get(ctx, repo, from, to); err != nil {
		zap.L().Warn("store: cache read failed", zap.Error(err))
	} else if ok {
		return diff, nil
	}

	diff, err := c.VCS.Diff(ctx, repo, from, to)
	if err != nil {
		return "", err
	}

	if err := c.Cache.Put(ctx, repo, from, to, diff); err != nil {
		zap.L().Warn("store: cache write failed", zap.Error(err))
	}
	return diff, nil
}
