package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrUnknownIcon = errors.New("unknown icon")

// IconName is a closed enum of the icons templates and buttons may reference.
type IconName string

const (
	IconZap           IconName = "Zap"
	IconMail          IconName = "Mail"
	IconGlobe         IconName = "Globe"
	IconWebhook       IconName = "Webhook"
	IconClock         IconName = "Clock"
	IconCalendar      IconName = "Calendar"
	IconFileText      IconName = "FileText"
	IconUpload        IconName = "Upload"
	IconDownload      IconName = "Download"
	IconDatabase      IconName = "Database"
	IconGitBranch     IconName = "GitBranch"
	IconFilter        IconName = "Filter"
	IconMessageSquare IconName = "MessageSquare"
	IconBell          IconName = "Bell"
	IconUser          IconName = "User"
	IconUsers         IconName = "Users"
	IconSettings      IconName = "Settings"
	IconPlus          IconName = "Plus"
	IconTrash         IconName = "Trash2"
	IconPencil        IconName = "Pencil"
	IconCheck         IconName = "Check"
	IconX             IconName = "X"
	IconSend          IconName = "Send"
	IconPlay          IconName = "Play"
	IconCode          IconName = "Code"
	IconSparkles      IconName = "Sparkles"
	IconSearch        IconName = "Search"
	IconLink          IconName = "Link"
)

// IconCapability is something a consumer may need from an icon.
type IconCapability string

const (
	// CapabilityTemplate icons may decorate activity templates on the map.
	CapabilityTemplate IconCapability = "template"
	// CapabilityButton icons may be shown inside buttons.
	CapabilityButton IconCapability = "button"
)

// Icon is one registry entry.
type Icon struct {
	Name         IconName
	Glyph        string
	Capabilities []IconCapability
}

// Has reports whether the icon supports capability c.
func (i Icon) Has(c IconCapability) bool {
	return slices.Contains(i.Capabilities, c)
}

var (
	both         = []IconCapability{CapabilityTemplate, CapabilityButton}
	templateOnly = []IconCapability{CapabilityTemplate}
	buttonOnly   = []IconCapability{CapabilityButton}
)

var iconRegistry = map[IconName]Icon{
	IconZap:           {Name: IconZap, Glyph: "⚡", Capabilities: templateOnly},
	IconMail:          {Name: IconMail, Glyph: "✉", Capabilities: both},
	IconGlobe:         {Name: IconGlobe, Glyph: "◍", Capabilities: both},
	IconWebhook:       {Name: IconWebhook, Glyph: "⚓", Capabilities: templateOnly},
	IconClock:         {Name: IconClock, Glyph: "◷", Capabilities: both},
	IconCalendar:      {Name: IconCalendar, Glyph: "▦", Capabilities: both},
	IconFileText:      {Name: IconFileText, Glyph: "▤", Capabilities: both},
	IconUpload:        {Name: IconUpload, Glyph: "⇪", Capabilities: both},
	IconDownload:      {Name: IconDownload, Glyph: "⇩", Capabilities: both},
	IconDatabase:      {Name: IconDatabase, Glyph: "⛁", Capabilities: templateOnly},
	IconGitBranch:     {Name: IconGitBranch, Glyph: "⑂", Capabilities: templateOnly},
	IconFilter:        {Name: IconFilter, Glyph: "⏷", Capabilities: both},
	IconMessageSquare: {Name: IconMessageSquare, Glyph: "□", Capabilities: both},
	IconBell:          {Name: IconBell, Glyph: "♪", Capabilities: both},
	IconUser:          {Name: IconUser, Glyph: "☺", Capabilities: both},
	IconUsers:         {Name: IconUsers, Glyph: "☻", Capabilities: both},
	IconSettings:      {Name: IconSettings, Glyph: "⚙", Capabilities: both},
	IconPlus:          {Name: IconPlus, Glyph: "+", Capabilities: buttonOnly},
	IconTrash:         {Name: IconTrash, Glyph: "✕", Capabilities: buttonOnly},
	IconPencil:        {Name: IconPencil, Glyph: "✎", Capabilities: buttonOnly},
	IconCheck:         {Name: IconCheck, Glyph: "✓", Capabilities: both},
	IconX:             {Name: IconX, Glyph: "×", Capabilities: buttonOnly},
	IconSend:          {Name: IconSend, Glyph: "➤", Capabilities: both},
	IconPlay:          {Name: IconPlay, Glyph: "▶", Capabilities: both},
	IconCode:          {Name: IconCode, Glyph: "⌘", Capabilities: both},
	IconSparkles:      {Name: IconSparkles, Glyph: "✦", Capabilities: both},
	IconSearch:        {Name: IconSearch, Glyph: "⌕", Capabilities: both},
	IconLink:          {Name: IconLink, Glyph: "⛓", Capabilities: both},
}

// LookupIcon returns the registry entry for name. Lookup is exact; unknown names
// are reported rather than mapped to a fallback.
func LookupIcon(name string) (Icon, bool) {
	icon, ok := iconRegistry[IconName(name)]

	return icon, ok
}

// Icons returns every registered icon sorted by name, optionally restricted to the
// given capability.
func Icons(c IconCapability) []Icon {
	out := make([]Icon, 0, len(iconRegistry))

	for _, icon := range iconRegistry {
		if c == "" || icon.Has(c) {
			out = append(out, icon)
		}
	}

	slices.SortFunc(out, func(a, b Icon) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})

	return out
}

// Valid reports whether n is registered.
func (n IconName) Valid() bool {
	_, ok := iconRegistry[n]

	return ok
}

func (n *IconName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if s != "" && !IconName(s).Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownIcon, s)
	}

	*n = IconName(s)

	return nil
}
