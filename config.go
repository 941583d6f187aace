package csp

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults holds package-level defaults an application can set once
// instead of repeating functional options at every NewChannel/Open call
// site. It is plain data: nothing in this package reads it implicitly,
// callers decide how to apply it (NurseryOption, ChannelBufferSize).
type Defaults struct {
	// NurseryPolicy names the FailurePolicy new nurseries should use.
	// One of: ignore-silently, cancel-siblings-silently, ignore-and-raise,
	// cancel-siblings-and-raise.
	NurseryPolicy string `yaml:"nursery_policy"`

	// ChannelBufferSize is the capacity new channels are given when a
	// caller doesn't have a more specific size in mind.
	ChannelBufferSize int `yaml:"channel_buffer_size"`
}

// defaultDefaults centralizes the zero-config values returned when no
// YAML file is loaded.
func defaultDefaults() Defaults {
	return Defaults{
		NurseryPolicy:     "ignore-silently",
		ChannelBufferSize: 0,
	}
}

// LoadDefaults reads a YAML file into a Defaults, filling in any field
// the file leaves unset with defaultDefaults and validating the result.
// It is optional sugar for applications that want declarative defaults
// instead of constructing NurseryOption/ChannelOption values in code.
func LoadDefaults(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading defaults file %s: %v", ErrInvalidArgument, path, err)
	}

	d := defaultDefaults()
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: parsing defaults YAML: %v", ErrInvalidArgument, err)
	}
	if d.NurseryPolicy == "" {
		d.NurseryPolicy = defaultDefaults().NurseryPolicy
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate reports whether d describes a usable configuration.
func (d *Defaults) Validate() error {
	if d.ChannelBufferSize < 0 {
		return fmt.Errorf("%w: channel_buffer_size must be >= 0, got %d", ErrInvalidArgument, d.ChannelBufferSize)
	}
	if _, err := d.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy resolves NurseryPolicy's string name into a FailurePolicy.
func (d *Defaults) Policy() (FailurePolicy, error) {
	switch d.NurseryPolicy {
	case "ignore-silently":
		return IgnoreSilently, nil
	case "cancel-siblings-silently":
		return CancelSiblingsSilently, nil
	case "ignore-and-raise":
		return IgnoreAndRaise, nil
	case "cancel-siblings-and-raise":
		return CancelSiblingsAndRaise, nil
	default:
		return 0, fmt.Errorf("%w: unknown nursery_policy %q", ErrInvalidArgument, d.NurseryPolicy)
	}
}

// NurseryOption adapts d's policy into a NurseryOption, falling back to
// IgnoreSilently if NurseryPolicy somehow holds an unrecognized name
// (Validate should already have rejected that at load time).
func (d *Defaults) NurseryOption() NurseryOption {
	policy, err := d.Policy()
	if err != nil {
		policy = IgnoreSilently
	}
	return WithPolicy(policy)
}
