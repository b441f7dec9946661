// Package pipeline wires the load, filter, post and extract stages together.
package pipeline

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mcncl/genpost/internal/errors"
	"github.com/mcncl/genpost/internal/extractor"
	"github.com/mcncl/genpost/internal/filter"
	"github.com/mcncl/genpost/internal/parser"
	"github.com/mcncl/genpost/internal/poster"
)

// Options are the resolved settings for one run.
type Options struct {
	Input    string
	BaseURL  string
	Path     string
	Timeout  time.Duration
	Insecure bool
}

// Deps are the collaborators a run uses. Zero values fall back to no stdin,
// a no-op logger and a client built from Options.
type Deps struct {
	Stdin      io.Reader
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Run loads the input, drops private entries, posts the remainder and returns
// the sorted keys the service marked valid. The first failing stage aborts
// the run and its error is returned unchanged.
func Run(ctx context.Context, opts Options, deps Deps) ([]string, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ir, err := parser.Load(opts.Input, deps.Stdin, logger.Named("loader"))
	if err != nil {
		return nil, err
	}

	payload, err := filter.Public(ir.Root, logger.Named("filter"))
	if err != nil {
		return nil, err
	}

	client := poster.NewClient(poster.Options{
		BaseURL:    opts.BaseURL,
		Path:       opts.Path,
		Timeout:    opts.Timeout,
		Insecure:   opts.Insecure,
		HTTPClient: deps.HTTPClient,
	}, logger.Named("poster"))
	defer client.Close()

	response, err := client.Post(ctx, payload)
	if err != nil {
		return nil, err
	}

	keys := extractor.ValidKeys(response)
	logger.Debug("extracted valid keys", zap.Int("count", len(keys)))
	return keys, nil
}

// WriteKeys prints each key on its own line.
func WriteKeys(w io.Writer, keys []string) error {
	bw := bufio.NewWriter(w)
	for _, key := range keys {
		if _, err := bw.WriteString(key + "\n"); err != nil {
			return errors.NewOutputError("failed to write keys", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.NewOutputError("failed to write keys", err)
	}
	return nil
}
