package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CLIConfig configures the mermaid CLI renderer.
type CLIConfig struct {
	// Command is the CLI binary name or path. Default: mmdc
	Command string

	// WorkDir holds the per-render temp files. Default: os.TempDir()
	WorkDir string

	// ExtraArgs are appended to every invocation.
	ExtraArgs []string
}

// CLIRenderer invokes the mermaid CLI to convert diagram source to PNG.
type CLIRenderer struct {
	config CLIConfig
}

// NewCLIRenderer creates a CLI renderer, applying defaults for zero fields.
func NewCLIRenderer(config CLIConfig) *CLIRenderer {
	if config.Command == "" {
		config.Command = "mmdc"
	}
	if config.WorkDir == "" {
		config.WorkDir = os.TempDir()
	}
	return &CLIRenderer{config: config}
}

// IsAvailable reports whether the CLI binary is on PATH right now.
func (r *CLIRenderer) IsAvailable(_ context.Context) bool {
	_, err := exec.LookPath(r.config.Command)
	return err == nil
}

// Render writes source to a temp file, runs the CLI, and reads the image
// back. A vanished binary maps to ErrUnavailable; everything else is a
// conversion failure carrying the tool's stderr.
func (r *CLIRenderer) Render(ctx context.Context, source string, params Params) ([]byte, error) {
	params = params.withDefaults()

	in, err := os.CreateTemp(r.config.WorkDir, "diagram-*.mmd")
	if err != nil {
		return nil, fmt.Errorf("renderer: temp input: %w", err)
	}
	inName := in.Name()
	defer os.Remove(inName)

	if _, err := in.WriteString(source); err != nil {
		in.Close()
		return nil, fmt.Errorf("renderer: write input: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("renderer: close input: %w", err)
	}

	outName := strings.TrimSuffix(inName, filepath.Ext(inName)) + ".png"
	defer os.Remove(outName)

	args := []string{
		"-i", inName,
		"-o", outName,
		"-t", params.Theme,
		"-b", params.BackgroundColor,
		"--quiet",
	}
	args = append(args, r.config.ExtraArgs...)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.config.Command, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, r.config.Command)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("renderer: conversion failed: %s", msg)
	}

	data, err := os.ReadFile(outName)
	if err != nil {
		return nil, fmt.Errorf("renderer: read output: %w", err)
	}
	return data, nil
}

var _ Renderer = (*CLIRenderer)(nil)
