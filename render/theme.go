package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Theme holds the visual style of a rendered graph. Sizes are graph units
// unless noted; the adapter scales them by the viewport zoom.
type Theme struct {
	Background     string   `toml:"background"`
	NodeColors     []string `toml:"node_colors"`
	EdgeColor      string   `toml:"edge_color"`
	LabelColor     string   `toml:"label_color"`
	SelectedColor  string   `toml:"selected_color"`
	SelectedStroke string   `toml:"selected_stroke"`
	NodeRadius     float64  `toml:"node_radius"`
	EdgeWidth      float64  `toml:"edge_width"`  // Screen pixels
	ArrowSize      float64  `toml:"arrow_size"`  // Screen pixels
	PairOffset     float64  `toml:"pair_offset"` // Screen pixels between the two arrows of a bidirectional pair
	FontSize       float64  `toml:"font_size"`
	MinFontSize    float64  `toml:"min_font_size"`
	Arrows         bool     `toml:"arrows"`
	Labels         bool     `toml:"labels"`
}

// DefaultTheme returns the dark CogniLink theme
func DefaultTheme() *Theme {
	return &Theme{
		Background: "#023047",
		NodeColors: []string{
			"#8ecae6", // Sky
			"#219ebc", // Blue green
			"#ffb703", // Amber
			"#fb8500", // Orange
			"#34A853", // Green
			"#673AB7", // Purple
			"#00BCD4", // Cyan
			"#EA4335", // Red
			"#FF5722", // Deep Orange
		},
		EdgeColor:      "#8ecae6",
		LabelColor:     "#ffffff",
		SelectedColor:  "#ff006e",
		SelectedStroke: "#ffffff",
		NodeRadius:     6,
		EdgeWidth:      1,
		ArrowSize:      6,
		PairOffset:     3,
		FontSize:       12,
		MinFontSize:    4,
		Arrows:         true,
		Labels:         true,
	}
}

// LightTheme returns a light theme suited to printed output
func LightTheme() *Theme {
	t := DefaultTheme()
	t.Background = "#f8f8f8"
	t.NodeColors = []string{
		"#4285F4", // Google Blue
		"#EA4335", // Google Red
		"#FBBC05", // Google Yellow
		"#34A853", // Google Green
		"#673AB7", // Purple
		"#3F51B5", // Indigo
		"#00BCD4", // Cyan
		"#009688", // Teal
		"#FF5722", // Deep Orange
	}
	t.EdgeColor = "#666666"
	t.LabelColor = "#333333"
	t.SelectedColor = "#F50057"
	t.SelectedStroke = "#212121"
	return t
}

// ThemeByName returns a built-in theme
func ThemeByName(name string) (*Theme, error) {
	switch strings.ToLower(name) {
	case "", "default", "dark":
		return DefaultTheme(), nil
	case "light":
		return LightTheme(), nil
	default:
		return nil, fmt.Errorf("unknown theme: %s", name)
	}
}

// LoadTheme reads a TOML theme file. Keys missing from the file keep their
// DefaultTheme values; unknown keys are an error.
func LoadTheme(path string) (*Theme, error) {
	t := DefaultTheme()
	md, err := toml.DecodeFile(path, t)
	if err != nil {
		return nil, fmt.Errorf("failed to decode theme %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("theme %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("theme %s: %w", path, err)
	}
	return t, nil
}

// Validate checks that the theme can be drawn
func (t *Theme) Validate() error {
	if len(t.NodeColors) == 0 {
		return fmt.Errorf("node_colors must not be empty")
	}
	if t.NodeRadius <= 0 {
		return fmt.Errorf("node_radius must be positive, got %v", t.NodeRadius)
	}
	if t.FontSize <= 0 || t.MinFontSize <= 0 {
		return fmt.Errorf("font sizes must be positive")
	}
	return nil
}

// NodeColor picks a stable color for a node id
func (t *Theme) NodeColor(id int) string {
	if len(t.NodeColors) == 0 {
		return "#808080"
	}
	if id < 0 {
		id = -id
	}
	return t.NodeColors[id%len(t.NodeColors)]
}
