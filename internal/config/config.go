// Package config holds the selection configuration of a synchronizer: the
// ordered list of property addresses to capture, each with a sync flag.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nlupugla/saveload/internal/variant"
)

var (
	ErrDuplicateProperty = errors.New("property already configured")
	ErrEmptyProperty     = errors.New("property path is empty")
	ErrUnknownProperty   = errors.New("property not configured")
)

// Config is an ordered set of property addresses. Addresses are unique by
// their string form. The zero value is an empty, usable configuration.
//
// Config is not safe for concurrent use.
type Config struct {
	properties []variant.NodePath
	sync       map[string]bool
}

// New returns a configuration holding the given addresses, all enabled.
func New(paths ...string) (*Config, error) {
	c := &Config{}
	for _, p := range paths {
		if err := c.AddProperty(variant.ParseNodePath(p), -1); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// AddProperty inserts path at index, or appends when index is negative or
// past the end. New properties are enabled. On error the configuration is
// unchanged.
func (c *Config) AddProperty(path variant.NodePath, index int) error {
	if path.IsEmpty() {
		return ErrEmptyProperty
	}
	key := path.String()
	if c.HasProperty(path) {
		return fmt.Errorf("%w: %s", ErrDuplicateProperty, key)
	}
	if c.sync == nil {
		c.sync = make(map[string]bool)
	}
	if index < 0 || index >= len(c.properties) {
		c.properties = append(c.properties, path)
	} else {
		c.properties = slices.Insert(c.properties, index, path)
	}
	c.sync[key] = true
	return nil
}

// RemoveProperty removes path and its flag. It reports whether path was
// configured.
func (c *Config) RemoveProperty(path variant.NodePath) bool {
	i, ok := c.PropertyGetIndex(path)
	if !ok {
		return false
	}
	c.properties = slices.Delete(c.properties, i, i+1)
	delete(c.sync, path.String())
	return true
}

func (c *Config) HasProperty(path variant.NodePath) bool {
	_, ok := c.sync[path.String()]
	return ok
}

// PropertyGetIndex returns the position of path. Positions shift when
// properties are added or removed before it.
func (c *Config) PropertyGetIndex(path variant.NodePath) (int, bool) {
	key := path.String()
	for i, p := range c.properties {
		if p.String() == key {
			return i, true
		}
	}
	return -1, false
}

func (c *Config) PropertySetSync(path variant.NodePath, enabled bool) error {
	if !c.HasProperty(path) {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, path)
	}
	c.sync[path.String()] = enabled
	return nil
}

// PropertyGetSync reports whether path is configured and enabled.
func (c *Config) PropertyGetSync(path variant.NodePath) bool {
	return c.sync[path.String()]
}

// Properties returns every configured address in order.
func (c *Config) Properties() []variant.NodePath {
	return slices.Clone(c.properties)
}

// SyncProperties returns the enabled addresses in order. This is the
// capture set.
func (c *Config) SyncProperties() []variant.NodePath {
	var out []variant.NodePath
	for _, p := range c.properties {
		if c.sync[p.String()] {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Len() int { return len(c.properties) }

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	out := &Config{
		properties: slices.Clone(c.properties),
		sync:       make(map[string]bool, len(c.sync)),
	}
	for k, v := range c.sync {
		out.sync[k] = v
	}
	return out
}
