// Package gitx provides read access to the commits under study. Repositories
// are mirrored into a local workdir on first use and fetched on later runs.
package gitx

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// VCS is what the batch pipeline needs from version control. Per-call errors
// are reported, not fatal; the orchestrator decides how a missing diff
// affects the record.
type VCS interface {
	// EnsureRepo makes the named repository available locally and returns
	// its path.
	EnsureRepo(ctx context.Context, repo string) (string, error)
	// Diff returns the textual diff between two commits.
	Diff(ctx context.Context, repo, from, to string) (string, error)
	// Message returns the full commit message of one commit.
	Message(ctx context.Context, repo, key string) (string, error)
}

// ExecGit implements VCS by shelling out to git. WorkDir holds one clone per
// repository; RemoteBase is prefixed to repository names to form clone URLs
// (e.g. "https://github.com/").
type ExecGit struct {
	WorkDir    string
	RemoteBase string
}

var _ VCS = (*ExecGit)(nil)

// EnsureRepo clones the repository on first use, fetches on subsequent ones.
func (g *ExecGit) EnsureRepo(ctx context.Context, repo string) (string, error) {
	dir := filepath.Join(g.WorkDir, sanitizeRepoName(repo))

	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		if _, err := g.run(ctx, dir, "fetch", "--all", "--quiet"); err != nil {
			// A stale clone can still serve diffs for already-fetched
			// commits, so a fetch failure is only a warning.
			zap.L().Warn("gitx: fetch failed, using existing clone",
				zap.String("repo", repo), zap.Error(err))
		}
		return dir, nil
	}

	if err := os.MkdirAll(g.WorkDir, 0o755); err != nil {
		return "", eris.Wrap(err, "gitx: create workdir")
	}

	url := g.RemoteBase + repo
	zap.L().Info("gitx: cloning repository", zap.String("repo", repo))
	if _, err := g.run(ctx, g.WorkDir, "clone", "--quiet", url, dir); err != nil {
		return "", eris.Wrapf(err, "gitx: clone %s", repo)
	}
	return dir, nil
}

// Diff returns `git diff from to` for the repository.
func (g *ExecGit) Diff(ctx context.Context, repo, from, to string) (string, error) {
	dir, err := g.EnsureRepo(ctx, repo)
	if err != nil {
		return "", err
	}
	out, err := g.run(ctx, dir, "diff", from, to)
	if err != nil {
		return "", eris.Wrapf(err, "gitx: diff %s %s..%s", repo, short(from), short(to))
	}
	return out, nil
}

// Message returns the full commit message body.
func (g *ExecGit) Message(ctx context.Context, repo, key string) (string, error) {
	dir, err := g.EnsureRepo(ctx, repo)
	if err != nil {
		return "", err
	}
	out, err := g.run(ctx, dir, "log", "-1", "--format=%B", key)
	if err != nil {
		return "", eris.Wrapf(err, "gitx: message %s %s", repo, short(key))
	}
	return strings.TrimSpace(out), nil
}

func (g *ExecGit) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", eris.Wrapf(err, "git %s: %s", args[0], msg)
		}
		return "", eris.Wrapf(err, "git %s", args[0])
	}
	return stdout.String(), nil
}

// sanitizeRepoName maps "owner/name" onto a single directory component.
func sanitizeRepoName(repo string) string {
	return strings.NewReplacer("/", "_", ":", "_", "\\", "_").Replace(repo)
}

func short(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}
