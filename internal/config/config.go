package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/hepscan/internal/ctxlog"
)

// File is the decoded configuration file.
type File struct {
	Log      *Log      `hcl:"log,block"`
	Resolver *Resolver `hcl:"resolver,block"`
	Counter  *Counter  `hcl:"counter,block"`
	Metrics  *Metrics  `hcl:"metrics,block"`
}

// Log configures the diagnostic log stream.
type Log struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

// Resolver configures the dataset resolver.
type Resolver struct {
	Command    string `hcl:"command,optional"`
	Redirector string `hcl:"redirector,optional"`
}

// Counter configures the event counter.
type Counter struct {
	Tree      string `hcl:"tree,optional"`
	Extension string `hcl:"extension,optional"`
}

// Metrics configures where run statistics are written.
type Metrics struct {
	Textfile string `hcl:"textfile,optional"`
}

// Load reads and decodes the file at path against the current environment.
func Load(ctx context.Context, path string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(ctx, src, path, os.Environ())
}

// Parse decodes src. filename is used only in diagnostics; environ is a list
// of KEY=VALUE pairs exposed to expressions as the `env` object.
func Parse(ctx context.Context, src []byte, filename string, environ []string) (*File, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing config file.", "file", filename)

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": EnvValue(environ)},
	}

	var f File
	if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &f); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	logger.Debug("Config file decoded.", "file", filename)
	return &f, nil
}

// EnvValue converts KEY=VALUE pairs into a cty object. Entries without '='
// are ignored; later duplicates win.
func EnvValue(environ []string) cty.Value {
	vals := make(map[string]cty.Value, len(environ))
	for _, e := range environ {
		key, value, ok := strings.Cut(e, "=")
		if !ok || key == "" {
			continue
		}
		vals[key] = cty.StringVal(value)
	}
	if len(vals) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vals)
}
