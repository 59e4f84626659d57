package xkblayouts

import "encoding/xml"

// Registry mirrors the parts of an xkb rules registry (evdev.xml) that name
// layouts and their variants.
type Registry struct {
	XMLName    xml.Name   `xml:"xkbConfigRegistry"`
	Version    string     `xml:"version,attr"`
	LayoutList LayoutList `xml:"layoutList"`
}

type ConfigItem struct {
	Name             string       `xml:"name"`
	ShortDescription string       `xml:"shortDescription"`
	Description      string       `xml:"description"`
	LanguageList     LanguageList `xml:"languageList"`
}

type LanguageList struct {
	ISO639 []string `xml:"iso639Id"`
}

type Variant struct {
	ConfigItem ConfigItem `xml:"configItem"`
}

type VariantList struct {
	Variant []Variant `xml:"variant"`
}

type Layout struct {
	ConfigItem  ConfigItem  `xml:"configItem"`
	VariantList VariantList `xml:"variantList"`
}

type LayoutList struct {
	Layout []Layout `xml:"layout"`
}

// Code identifies a layout the way xkb rules do, e.g. {"us", "dvorak"}.
type Code struct {
	Layout  string
	Variant string
}

func (c Code) String() string {
	if c.Variant == "" {
		return c.Layout
	}
	return c.Layout + "(" + c.Variant + ")"
}
