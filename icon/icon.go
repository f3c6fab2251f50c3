// Package icon renders status glyphs in the variant selected by the icons.variant setting.
package icon

import (
	"github.com/plugtest/plugtest/key"
	"github.com/spf13/viper"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	squares = "squares"
)

// AvailableVariants returns every supported icon variant.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, squares}
}

// Icon identifies a glyph in the registry.
type Icon int

const (
	Idle Icon = iota
	Running
	OK
	Empty
	Fail
	Success
	Progress
	Lua
)

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	squares string
}

var icons = map[Icon]*iconDef{
	Idle:     {emoji: "💤", nerd: "", plain: "-", squares: "□"},
	Running:  {emoji: "⏳", nerd: "", plain: "~", squares: "▣"},
	OK:       {emoji: "✅", nerd: "", plain: "+", squares: "■"},
	Empty:    {emoji: "🫙", nerd: "", plain: "o", squares: "▢"},
	Fail:     {emoji: "❌", nerd: "", plain: "x", squares: "▨"},
	Success:  {emoji: "🎉", nerd: "", plain: "✓", squares: "■"},
	Progress: {emoji: "⏳", nerd: "", plain: "...", squares: "▣"},
	Lua:      {emoji: "🌙", nerd: "", plain: "lua", squares: "▤"},
}

func (d *iconDef) get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case squares:
		return d.squares
	default:
		return ""
	}
}

// Get returns the glyph for i in the configured variant.
func Get(i Icon) string {
	d, ok := icons[i]
	if !ok {
		return ""
	}
	return d.get()
}
