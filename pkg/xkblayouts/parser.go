// Package xkblayouts reads the xkb rules registry to translate between
// layout codes and the human readable names keymaps carry.
package xkblayouts

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultPath is where most distributions install the evdev registry.
const DefaultPath = "/usr/share/X11/xkb/rules/evdev.xml"

var ErrUnknownLayout = errors.New("unknown layout")

func Load(path string) (*Registry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

func Parse(r io.Reader) (*Registry, error) {
	registry := &Registry{}
	err := xml.NewDecoder(r).Decode(registry)
	if err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}

	return registry, nil
}

// Describe returns the pretty name of a layout or one of its variants.
func (r *Registry) Describe(code Code) (string, error) {
	for _, l := range r.LayoutList.Layout {
		if l.ConfigItem.Name != code.Layout {
			continue
		}
		if code.Variant == "" {
			return l.ConfigItem.Description, nil
		}

		for _, v := range l.VariantList.Variant {
			if v.ConfigItem.Name == code.Variant {
				return v.ConfigItem.Description, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownLayout, code)
}

// Resolve finds the layout code behind a pretty name such as
// "English (US)", which is what compiled keymaps report for each group.
func (r *Registry) Resolve(prettyName string) (Code, error) {
	for _, l := range r.LayoutList.Layout {
		if l.ConfigItem.Description == prettyName {
			return Code{Layout: l.ConfigItem.Name}, nil
		}

		for _, v := range l.VariantList.Variant {
			if v.ConfigItem.Description == prettyName {
				return Code{Layout: l.ConfigItem.Name, Variant: v.ConfigItem.Name}, nil
			}
		}
	}

	return Code{}, fmt.Errorf("%w: %q", ErrUnknownLayout, prettyName)
}

// Languages lists the ISO 639 ids of a layout, falling back to the parent
// layout's list when the variant has none of its own.
func (r *Registry) Languages(code Code) []string {
	for _, l := range r.LayoutList.Layout {
		if l.ConfigItem.Name != code.Layout {
			continue
		}
		for _, v := range l.VariantList.Variant {
			if v.ConfigItem.Name == code.Variant && len(v.ConfigItem.LanguageList.ISO639) > 0 {
				return v.ConfigItem.LanguageList.ISO639
			}
		}
		return l.ConfigItem.LanguageList.ISO639
	}
	return nil
}
