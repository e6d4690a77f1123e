package confkit

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ResolvePath expands environment variables in file and, when the result is
// relative, joins it to base.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// BaseDir returns the directory of the main config file path.
func BaseDir(mainPath string) string {
	return filepath.Dir(mainPath)
}

// LoadYAML decodes the YAML file at path over the value returned by defaults,
// so keys missing from the file keep their default. ${VAR} references are
// expanded before decoding.
func LoadYAML[T any](path string, defaults func() T) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg T
	if defaults != nil {
		cfg = defaults()
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &cfg, nil
}

// Section is a block of the main config whose body lives in its own file.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Hydrate loads File, resolved against base, through loader and stores the
// result in Value. An empty File leaves the section unset.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if s.File == "" {
		return nil
	}
	p := ResolvePath(base, s.File)
	v, err := loader(p)
	if err != nil {
		return err
	}
	s.File, s.Value = p, v
	return nil
}

// Loaded reports whether Hydrate produced a value.
func (s Section[T]) Loaded() bool {
	return s.Value != nil
}
