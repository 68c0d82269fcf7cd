package graph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout bounds a single renderer invocation.
const DefaultTimeout = 30 * time.Second

// Renderer turns DOT text into an image at outPath.
type Renderer interface {
	Render(ctx context.Context, g GraphText, outPath string) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, g GraphText, outPath string) error

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, g GraphText, outPath string) error {
	return f(ctx, g, outPath)
}

// CommandRenderer pipes the DOT text into a Graphviz-compatible binary:
//
//	dot -T<format> -o <outPath>
type CommandRenderer struct {
	Binary  string        // default "dot"
	Format  string        // default: outPath extension, else "png"
	Timeout time.Duration // default DefaultTimeout
}

// Render runs the command and waits for it, at most Timeout. A non-zero exit,
// a missing binary and a timeout are all reported as ErrRender.
func (r CommandRenderer) Render(ctx context.Context, g GraphText, outPath string) error {
	binary := r.Binary
	if binary == "" {
		binary = "dot"
	}
	format := r.Format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(outPath), ".")
	}
	if format == "" {
		format = "png"
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "-T"+format, "-o", outPath)
	cmd.Stdin = strings.NewReader(g.String())
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// do not wait on grandchildren that inherited stderr after a kill
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %s timed out after %s", ErrRender, outPath, binary, timeout)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%w: %s: %s: %v", ErrRender, outPath, binary, err)
		}
		return fmt.Errorf("%w: %s: %s: %v: %s", ErrRender, outPath, binary, err, msg)
	}
	return nil
}
