package mib

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"
)

// DefaultModules are the modules a switch session loads: the standard
// bridge, interface and IP MIBs plus HP's IP configuration MIB.
var DefaultModules = []string{
	"RFC1213-MIB",
	"BRIDGE-MIB",
	"IF-MIB",
	"Q-BRIDGE-MIB",
	"IP-MIB",
	"HP-ICF-IPCONFIG",
	"IP-FORWARD-MIB",
}

// fileExtensions are tried in order when looking a module up by name.
var fileExtensions = []string{"", ".mib", ".txt", ".my", ".smi"}

//go:embed mibs/*.mib
var builtinFS embed.FS

// Source is a place MIB module files are read from.
type Source struct {
	name string
	fsys fs.FS
}

// Dir returns a Source reading module files from a directory.
func Dir(dir string) Source {
	return Source{name: dir, fsys: os.DirFS(dir)}
}

// FS returns a Source reading module files from the root of fsys.
func FS(name string, fsys fs.FS) Source {
	return Source{name: name, fsys: fsys}
}

// Builtin returns the Source holding the modules compiled into the binary.
func Builtin() Source {
	sub, err := fs.Sub(builtinFS, "mibs")
	if err != nil {
		panic(err)
	}
	return Source{name: "builtin", fsys: sub}
}

func (s Source) String() string { return s.name }

// find returns the contents of the file defining module.
func (s Source) find(module string) ([]byte, string, error) {
	for _, base := range []string{module, strings.ToLower(module)} {
		for _, ext := range fileExtensions {
			file := base + ext
			data, err := fs.ReadFile(s.fsys, file)
			if err == nil {
				return data, file, nil
			}
			if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrInvalid) {
				return nil, "", fmt.Errorf("read %s: %w", path.Join(s.name, file), err)
			}
		}
	}

	// Vendor files are often not named after the module they hold.
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fs.ErrNotExist
		}
		return nil, "", fmt.Errorf("list %s: %w", s.name, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := fs.ReadFile(s.fsys, e.Name())
		if err != nil || !bytes.Contains(data, []byte(module)) {
			continue
		}
		modules, err := ParseModules(data)
		if err != nil {
			continue
		}
		for _, m := range modules {
			if m.Name == module {
				return data, e.Name(), nil
			}
		}
	}
	return nil, "", fs.ErrNotExist
}

type loadOptions struct {
	sources []Source
	logger  *zap.Logger
}

// Option configures LoadModules.
type Option func(*loadOptions)

// WithSources adds module sources searched before the built-in set.
func WithSources(sources ...Source) Option {
	return func(o *loadOptions) {
		o.sources = append(o.sources, sources...)
	}
}

// WithDirs adds directories searched before the built-in set.
func WithDirs(dirs ...string) Option {
	return func(o *loadOptions) {
		for _, d := range dirs {
			o.sources = append(o.sources, Dir(d))
		}
	}
}

// WithLogger sets the logger used to report loaded modules.
func WithLogger(logger *zap.Logger) Option {
	return func(o *loadOptions) {
		o.logger = logger
	}
}

// LoadModules loads the named modules and everything they import, then
// builds the OID tree. A module that cannot be found, or an assignment
// whose parent never resolves, fails the whole load.
func LoadModules(names []string, opts ...Option) (*MIB, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	sources := append(o.sources, Builtin())

	loaded := make(map[string]*Module)
	var order []*Module
	queue := append([]string(nil), names...)

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, ok := loaded[name]; ok {
			continue
		}

		modules, src, err := parseFrom(sources, name)
		if err != nil {
			return nil, err
		}

		found := false
		for _, mod := range modules {
			if _, ok := loaded[mod.Name]; ok {
				continue
			}
			loaded[mod.Name] = mod
			order = append(order, mod)
			queue = append(queue, mod.Depends...)
			if mod.Name == name {
				found = true
			}
			o.logger.Debug("loaded MIB module",
				zap.String("module", mod.Name),
				zap.String("source", src),
				zap.Int("definitions", len(mod.definitions)),
			)
		}
		if !found {
			return nil, fmt.Errorf("%w: %s (file %s defines other modules)", ErrModuleNotFound, name, src)
		}
	}

	m, err := build(order)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("built MIB tree",
		zap.Int("modules", len(order)),
		zap.Int("nodes", m.Len()),
	)
	return m, nil
}

func parseFrom(sources []Source, name string) ([]*Module, string, error) {
	for _, s := range sources {
		data, file, err := s.find(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		where := path.Join(s.name, file)
		modules, err := ParseModules(data)
		if err != nil {
			return nil, "", fmt.Errorf("parse %s: %w", where, err)
		}
		return modules, where, nil
	}
	return nil, "", fmt.Errorf("%w: %s", ErrModuleNotFound, name)
}
