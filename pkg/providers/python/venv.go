package python

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"mercator-hq/relay/pkg/providers"
)

// bootstraps serializes environment creation per absolute directory across
// every adapter in the process.
var bootstraps singleflight.Group

// ensureVenv creates the script environment if its directory does not exist.
//
// Creation runs the system interpreter's venv module and then installs
// Packages with the environment's pip. A failed install removes the
// directory again, so the next call starts over with creation.
//
// The shared bootstrap is detached from any single caller's context; a
// caller whose ctx ends stops waiting without failing the others.
func (p *Provider) ensureVenv(ctx context.Context) error {
	if venvExists(p.venvDir) {
		return nil
	}

	key, err := filepath.Abs(p.venvDir)
	if err != nil {
		key = p.venvDir
	}

	bctx := context.WithoutCancel(ctx)
	ch := bootstraps.DoChan(key, func() (interface{}, error) {
		// Another caller may have finished while we waited
		if venvExists(p.venvDir) {
			return nil, nil
		}
		return nil, p.bootstrap(bctx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return providers.RequestFailedWithCause(ctx.Err(), "python environment setup interrupted: %v", ctx.Err())
	}
}

func (p *Provider) bootstrap(ctx context.Context) error {
	slog.Info("creating python environment", "dir", p.venvDir, "python", p.systemPython)

	result, err := p.runner.Run(ctx, providers.Command{
		Path: p.systemPython,
		Args: []string{"-m", "venv", p.venvDir},
	})
	if err != nil {
		p.discardVenv()
		return providers.RequestFailedWithCause(err, "venv creation failed: %s", failureText(result, err))
	}

	pip := filepath.Join(p.venvDir, "bin", "pip")
	args := append([]string{"install"}, Packages...)

	slog.Info("installing python dependencies", "pip", pip, "packages", Packages)

	result, err = p.runner.Run(ctx, providers.Command{Path: pip, Args: args})
	if err != nil {
		p.discardVenv()
		return providers.RequestFailedWithCause(err, "dependency installation failed: %s", failureText(result, err))
	}

	return nil
}

// discardVenv removes a half-built environment so its presence is not
// mistaken for a finished one.
func (p *Provider) discardVenv() {
	if err := os.RemoveAll(p.venvDir); err != nil {
		slog.Warn("failed to remove incomplete python environment", "dir", p.venvDir, "error", err)
	}
}

func venvExists(dir string) bool {
	_, err := os.Stat(dir)
	return err == nil
}
