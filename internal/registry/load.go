package registry

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/fsutil"
)

// definitionsFile is the decode target for one registry definitions file.
//
//	function "ApplyBurn" {
//	  owner   = "BurnLibrary"
//	  pure    = false
//	  params  = ["Target", "Seconds"]
//	  returns = ["ReturnValue"]
//	}
//	class "BurnableActor" {}
type definitionsFile struct {
	Functions []*functionBlock `hcl:"function,block"`
	Classes   []*classBlock    `hcl:"class,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type functionBlock struct {
	Name    string   `hcl:"name,label"`
	Owner   string   `hcl:"owner,optional"`
	Pure    bool     `hcl:"pure,optional"`
	Params  []string `hcl:"params,optional"`
	Returns []string `hcl:"returns,optional"`
}

type classBlock struct {
	Name   string   `hcl:"name,label"`
	Remain hcl.Body `hcl:",remain"`
}

// LoadDefinitions reads every .hcl file under path and registers the
// functions and classes it declares on b. A missing path is not an error.
func (b *Builder) LoadDefinitions(ctx context.Context, path string) error {
	logger := ctxlog.FromContext(ctx)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			logger.Debug("Registry definitions path does not exist, skipping.", "path", path)
			return nil
		}
		return fmt.Errorf("error accessing path %s: %w", path, err)
	}

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return fmt.Errorf("failed to walk registry definitions %s: %w", path, err)
	}
	logger.Debug("Found registry definition files.", "count", len(files))

	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		var root definitionsFile
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		for _, fn := range root.Functions {
			b.RegisterFunction(&Function{
				Name:    fn.Name,
				Owner:   fn.Owner,
				Pure:    fn.Pure,
				Params:  fn.Params,
				Returns: fn.Returns,
			})
		}
		for _, c := range root.Classes {
			b.RegisterClass(c.Name)
		}
		logger.Debug("Loaded registry definitions.", "file", file, "functions", len(root.Functions), "classes", len(root.Classes))
	}
	return nil
}
