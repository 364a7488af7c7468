package ringserver

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/ridge/ringsource/ringbuffer"
	"github.com/ridge/ringsource/source/file"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

var nameRE = regexp.MustCompile(`^[-._a-zA-Z0-9]+$`)

// Catalog maps ring names to source URIs
type Catalog map[string]string

type catalogFile struct {
	Rings Catalog `yaml:"rings"`
}

// LoadCatalog reads a catalog from a YAML file:
//
//	rings:
//	  events: tcp://spdaq01/events
//	  run-0001: file:///data/run-0001.evt
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load ring catalog: %w", err)
	}
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to load ring catalog %s: %w", path, err)
	}
	if cf.Rings == nil {
		cf.Rings = Catalog{}
	}
	if err := cf.Rings.Validate(); err != nil {
		return nil, fmt.Errorf("failed to load ring catalog %s: %w", path, err)
	}
	return cf.Rings, nil
}

// Add adds a ring given as name=uri
func (c Catalog) Add(entry string) error {
	name, uri, ok := strings.Cut(entry, "=")
	if !ok {
		return fmt.Errorf("invalid ring %q: name=uri expected", entry)
	}
	if err := validate(name, uri); err != nil {
		return err
	}
	c[name] = uri
	return nil
}

// Validate checks names and URIs
func (c Catalog) Validate() error {
	var errs []error
	for _, name := range c.Names() {
		if err := validate(name, c[name]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Names returns the ring names in order
func (c Catalog) Names() []string {
	names := maps.Keys(c)
	slices.Sort(names)
	return names
}

func validate(name, uri string) error {
	if !nameRE.MatchString(name) {
		return fmt.Errorf("invalid ring name %q", name)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("invalid URI for ring %s: %w", name, err)
	}
	if u.Scheme != file.Scheme && !ringbuffer.IsScheme(u.Scheme) {
		return fmt.Errorf("invalid URI for ring %s: unsupported scheme %q", name, u.Scheme)
	}
	return nil
}
