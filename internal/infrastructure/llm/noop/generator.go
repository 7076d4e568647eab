// Package noop provides the null answer generator used when no external
// model is configured. It always fails, which drives the composer down the
// same extractive fallback path as a transient model outage would.
package noop

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("answer generation not configured")

type Generator struct{}

func NewGenerator() *Generator { return &Generator{} }

func (Generator) Generate(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}
