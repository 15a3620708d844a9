package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/gasgen/internal/ctxlog"
)

// DefaultFileName is looked up in the working directory when no pipeline
// file is named.
const DefaultFileName = "gasgen.hcl"

// File is the decoded pipeline file.
type File struct {
	Manifest      string `hcl:"manifest,optional"`
	ContentRoot   string `hcl:"content_root,optional"`
	StoreDir      string `hcl:"store_dir,optional"`
	MetadataPath  string `hcl:"metadata_path,optional"`
	ReportDir     string `hcl:"report_dir,optional"`
	Dialogues     string `hcl:"dialogues,optional"`
	DialogueSheet string `hcl:"dialogue_sheet,optional"`
	RegistryPath  string `hcl:"registry_path,optional"`
	TagsIni       string `hcl:"tags_ini,optional"`
	MaxRetries    *int   `hcl:"max_retries,optional"`
	LogLevel      string `hcl:"log_level,optional"`
	LogFormat     string `hcl:"log_format,optional"`

	// Path is where the file was read from, empty when none was found.
	Path string
}

// Load reads the pipeline file at path. An empty path looks for
// DefaultFileName and returns an empty File when it does not exist; a named
// file must exist. envFile, when set, must exist too.
func Load(ctx context.Context, path, envFile string) (*File, error) {
	logger := ctxlog.FromContext(ctx)

	env, err := Environment(envFile)
	if err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	src, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			logger.Debug("No pipeline file found, using defaults.", "path", path)
			return &File{}, nil
		}
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}

	f, err := Decode(path, src, env)
	if err != nil {
		return nil, err
	}
	f.Path = path
	f.resolve(filepath.Dir(path))
	logger.Debug("Loaded pipeline file.", "path", path)
	return f, nil
}

// Decode parses pipeline file source. filename is only used in diagnostics.
func Decode(filename string, src []byte, env map[string]string) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, diags)
	}

	var f File
	if diags := gohcl.DecodeBody(hclFile.Body, EvalContext(env), &f); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, diags)
	}
	if f.MaxRetries != nil && *f.MaxRetries < 1 {
		return nil, fmt.Errorf("%s: max_retries must be at least 1", filename)
	}
	return &f, nil
}

// Environment returns the process environment overlaid with the values of
// envFile. The process environment itself is not modified.
func Environment(envFile string) (map[string]string, error) {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	if envFile == "" {
		return env, nil
	}
	overlay, err := godotenv.Read(envFile)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", envFile, err)
	}
	for k, v := range overlay {
		env[k] = v
	}
	return env, nil
}

// EvalContext exposes env to pipeline file expressions.
func EvalContext(env map[string]string) *hcl.EvalContext {
	vals := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vals[k] = cty.StringVal(v)
	}
	envVal := cty.EmptyObjectVal
	if len(vals) > 0 {
		envVal = cty.ObjectVal(vals)
	}
	return &hcl.EvalContext{Variables: map[string]cty.Value{"env": envVal}}
}

func (f *File) resolve(dir string) {
	for _, p := range []*string{&f.Manifest, &f.StoreDir, &f.MetadataPath, &f.ReportDir, &f.Dialogues, &f.RegistryPath, &f.TagsIni} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}
