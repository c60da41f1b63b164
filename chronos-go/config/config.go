// Package config loads YAML configuration files from a directory and exposes
// them through dotted-key lookups. Each file contributes a top-level section
// named after the file stem, so "training.yaml" is addressed as
// "training.<key>".
package config

import (
	"io/ioutil"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
)

// Provider holds the merged configuration tree.
type Provider struct {
	sections map[string]interface{}
}

// NewProvider reads every .yaml/.yml file in dir. A missing directory yields
// an empty provider, not an error, so defaults still apply.
func NewProvider(dir string) (*Provider, error) {
	p := &Provider{sections: make(map[string]interface{})}

	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return p, nil
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		buf, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", path)
		}
		var section map[interface{}]interface{}
		if err := yaml.Unmarshal(buf, &section); err != nil {
			return nil, errors.Wrapf(err, "error parsing config file %s", path)
		}
		stem := strings.TrimSuffix(entry.Name(), ext)
		p.sections[stem] = section
	}
	return p, nil
}

// Get resolves a dotted key like "training.checkpoint.dir". It returns the
// default when any path component is missing.
func (p *Provider) Get(key string, def interface{}) interface{} {
	parts := strings.Split(key, ".")
	var node interface{} = p.sections[parts[0]]
	for _, part := range parts[1:] {
		m, ok := node.(map[interface{}]interface{})
		if !ok {
			return def
		}
		node, ok = m[part]
		if !ok {
			return def
		}
	}
	if node == nil {
		return def
	}
	return node
}

// GetString resolves a dotted key to a string.
func (p *Provider) GetString(key, def string) string {
	if s, ok := p.Get(key, def).(string); ok {
		return s
	}
	return def
}

// GetInt resolves a dotted key to an int.
func (p *Provider) GetInt(key string, def int) int {
	switch v := p.Get(key, def).(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

// GetFloat resolves a dotted key to a float64.
func (p *Provider) GetFloat(key string, def float64) float64 {
	switch v := p.Get(key, def).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// GetBool resolves a dotted key to a bool.
func (p *Provider) GetBool(key string, def bool) bool {
	if b, ok := p.Get(key, def).(bool); ok {
		return b
	}
	return def
}

// Section returns a whole subtree as a generic map, or nil when absent.
func (p *Provider) Section(key string) map[interface{}]interface{} {
	m, _ := p.Get(key, nil).(map[interface{}]interface{})
	return m
}

// ValidateRequired errors on the first listed key with no value.
func (p *Provider) ValidateRequired(keys ...string) error {
	for _, key := range keys {
		if p.Get(key, nil) == nil {
			return errors.Errorf("required config key %s is not set", key)
		}
	}
	return nil
}
