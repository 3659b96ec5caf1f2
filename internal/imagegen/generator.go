// Package imagegen turns a prompt into an image handle. The game treats the
// backend as a black box: a handle and how long it took, or an error.
package imagegen

import (
	"context"
	"time"
)

type Result struct {
	Handle  string
	Latency time.Duration
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (Result, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (Result, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (Result, error) {
	return f(ctx, prompt)
}
