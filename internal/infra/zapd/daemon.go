package zapd

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultImage = "ghcr.io/zaproxy/zaproxy:stable"

type Options struct {
	Image          string
	Port           int
	APIKey         string
	StartupTimeout time.Duration
}

// Daemon is a dockerized ZAP instance managed for the lifetime of a
// batch run. The HTTP API surface stays the same as a locally
// installed daemon, so callers only need the address.
type Daemon struct {
	opts        Options
	containerID string
}

// Start launches the ZAP daemon container in the background.
func Start(ctx context.Context, opts Options) (*Daemon, error) {
	if opts.Image == "" {
		opts.Image = defaultImage
	}
	if opts.Port == 0 {
		opts.Port = 8080
	}
	if opts.StartupTimeout == 0 {
		opts.StartupTimeout = 2 * time.Minute
	}

	args := []string{
		"run", "-d", "--rm",
		"-u", "zap",
		"-p", fmt.Sprintf("%d:%d", opts.Port, opts.Port),
		opts.Image,
		"zap.sh", "-daemon",
		"-host", "0.0.0.0",
		"-port", fmt.Sprintf("%d", opts.Port),
		"-config", "api.addrs.addr.name=.*",
		"-config", "api.addrs.addr.regex=true",
	}
	if opts.APIKey != "" {
		args = append(args, "-config", "api.key="+opts.APIKey)
	} else {
		args = append(args, "-config", "api.disablekey=true")
	}

	cmd := exec.CommandContext(ctx, "docker", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("docker run error: %v, output=%s", err, string(out))
	}

	return &Daemon{
		opts:        opts,
		containerID: strings.TrimSpace(string(out)),
	}, nil
}

// Address returns the daemon's API base URL on the host.
func (d *Daemon) Address() string {
	return fmt.Sprintf("http://127.0.0.1:%d", d.opts.Port)
}

// WaitReady polls the supplied health check until the daemon answers
// or the startup timeout passes.
func (d *Daemon) WaitReady(ctx context.Context, check func(context.Context) error) error {
	deadline := time.Now().Add(d.opts.StartupTimeout)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		if err := check(ctx); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("zap daemon not ready after %s", d.opts.StartupTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stop removes the container. Safe to call once the batch is done.
func (d *Daemon) Stop(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "docker", "rm", "-f", d.containerID)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("docker rm error: %v, output=%s", err, string(out))
	}
	return nil
}
