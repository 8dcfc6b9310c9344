package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadMode controls how errors are handled while loading descriptors.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// ErrUnknownDataset is returned by Catalog.Get for a name it does not hold.
var ErrUnknownDataset = errors.New("unknown dataset")

// Catalog holds compiled datasets by name.
type Catalog struct {
	datasets  map[string]*Dataset
	FileCount int
}

// Get returns the dataset called name.
func (c *Catalog) Get(name string) (*Dataset, error) {
	ds, ok := c.datasets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	return ds, nil
}

// Names returns the dataset names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.datasets))
	for name := range c.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDir loads and compiles the CUE descriptors in dir.
func LoadDir(dir string, mode LoadMode) (*Catalog, []error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("specs directory: %w", err)}
	}
	if !info.IsDir() {
		return nil, []error{fmt.Errorf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("scan %s: %w", dir, err)}
	}
	if len(files) == 0 {
		return nil, []error{fmt.Errorf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{fmt.Errorf("no CUE instances loaded from %s", dir)}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{fmt.Errorf("loading CUE files: %w", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	cat, errs := compileAll(value, mode)
	if cat != nil {
		cat.FileCount = len(files)
	}
	return cat, errs
}

// CompileString compiles descriptors from CUE source. filename is used in
// error positions.
func CompileString(src, filename string, mode LoadMode) (*Catalog, []error) {
	value := cuecontext.New().CompileString(src, cue.Filename(filename))
	return compileAll(value, mode)
}

func compileAll(value cue.Value, mode LoadMode) (*Catalog, []error) {
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	cat := &Catalog{datasets: make(map[string]*Dataset)}
	var errs []error

	datasetsVal := value.LookupPath(cue.ParsePath("dataset"))
	if !datasetsVal.Exists() {
		return cat, []error{fmt.Errorf("no datasets found")}
	}
	iter, err := datasetsVal.Fields()
	if err != nil {
		return cat, []error{formatCUEError(err)}
	}
	for iter.Next() {
		ds, err := CompileDataset(iter.Value())
		if err != nil {
			errs = append(errs, fmt.Errorf("dataset %s: %w", iter.Label(), err))
			if mode == LoadModeFailFast {
				return cat, errs
			}
			continue
		}
		cat.datasets[ds.Name] = ds
	}
	if len(cat.datasets) == 0 && len(errs) == 0 {
		errs = append(errs, fmt.Errorf("no datasets found"))
	}
	return cat, errs
}

// FindCUEFiles walks dir and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
