package blackbox

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/oxleaf/parlour/internal/puzzle"
)

// Params implements puzzle.Backend.
func (b *Backend) Params() string { return b.params.encode() }

// SetParams implements puzzle.Backend.
func (b *Backend) SetParams(encoded string) string {
	p, errstr := decodeParams(encoded)
	if errstr != "" {
		return errstr
	}
	b.params = p
	b.pendingStart = nil
	b.pendingSeed = 0
	b.hooks.ParamsChanged()
	return ""
}

// Presets implements puzzle.Backend.
func (b *Backend) Presets() []puzzle.Preset {
	return []puzzle.Preset{
		{Title: "3x3 Normal", Params: "3x3"},
		{Title: "4x4 Normal", Params: "4x4"},
		{Title: "5x5 Normal", Params: "5x5"},
		{Title: "Hard", Submenu: []puzzle.Preset{
			{Title: "3x3 Hard", Params: "3x3h"},
			{Title: "4x4 Hard", Params: "4x4h"},
		}},
	}
}

// CustomConfig implements puzzle.Backend.
func (b *Backend) CustomConfig() puzzle.Config {
	return puzzle.Config{
		Title: "Black Box configuration",
		Items: map[string]puzzle.ConfigItem{
			"width":  {Name: "Width", Type: puzzle.ItemString},
			"height": {Name: "Height", Type: puzzle.ItemString},
			"mode":   {Name: "Mode", Type: puzzle.ItemChoices, Choices: modeNames},
		},
	}
}

// CustomValues implements puzzle.Backend.
func (b *Backend) CustomValues() puzzle.Values {
	return puzzle.Values{
		"width":  strconv.Itoa(b.params.W),
		"height": strconv.Itoa(b.params.H),
		"mode":   b.params.Mode,
	}
}

// SetCustomValues implements puzzle.Backend. Absent keys keep their current
// value; the whole update is rejected on the first invalid value.
func (b *Backend) SetCustomValues(v puzzle.Values) string {
	p := b.params
	if raw, ok := v["width"]; ok {
		w, errstr := dimValue("width", raw)
		if errstr != "" {
			return errstr
		}
		p.W = w
	}
	if raw, ok := v["height"]; ok {
		h, errstr := dimValue("height", raw)
		if errstr != "" {
			return errstr
		}
		p.H = h
	}
	if raw, ok := v["mode"]; ok {
		idx, ok := puzzle.ChoiceIndex(raw)
		if !ok || idx < 0 || idx >= len(modeNames) {
			return "mode selection is out of range"
		}
		p.Mode = idx
	}
	if p != b.params {
		b.params = p
		b.pendingStart = nil
		b.pendingSeed = 0
		b.hooks.ParamsChanged()
	}
	return ""
}

func dimValue(name string, raw any) (int, string) {
	s, ok := raw.(string)
	if !ok {
		return 0, fmt.Sprintf("%s must be a string", name)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Sprintf("%s is not a number", name)
	}
	if n < minDim || n > maxDim {
		return 0, fmt.Sprintf("%s must be between %d and %d", name, minDim, maxDim)
	}
	return n, ""
}

// PrefsConfig implements puzzle.Backend.
func (b *Backend) PrefsConfig() puzzle.Config {
	return puzzle.Config{
		Title: "Black Box preferences",
		Items: map[string]puzzle.ConfigItem{
			"show-coords": {Name: "Show coordinates", Type: puzzle.ItemBoolean},
			"flash-style": {Name: "Flash style", Type: puzzle.ItemChoices, Choices: flashStyleNames},
		},
	}
}

// Prefs implements puzzle.Backend.
func (b *Backend) Prefs() puzzle.Values {
	return puzzle.Values{
		"show-coords": b.prefs.ShowCoords,
		"flash-style": b.prefs.FlashStyle,
	}
}

// SetPrefs implements puzzle.Backend.
func (b *Backend) SetPrefs(v puzzle.Values) string {
	if raw, ok := v["show-coords"]; ok {
		val, ok := raw.(bool)
		if !ok {
			return "show-coords must be a boolean"
		}
		b.prefs.ShowCoords = val
	}
	if raw, ok := v["flash-style"]; ok {
		idx, ok := puzzle.ChoiceIndex(raw)
		if !ok || idx < 0 || idx >= len(flashStyleNames) {
			return "flash-style selection is out of range"
		}
		b.prefs.FlashStyle = idx
	}
	return ""
}

// MarshalPrefs implements puzzle.Backend.
func (b *Backend) MarshalPrefs() []byte {
	data, err := json.Marshal(b.prefs)
	if err != nil {
		// prefs is a plain struct; this cannot fail
		panic(err)
	}
	return data
}

// UnmarshalPrefs implements puzzle.Backend.
func (b *Backend) UnmarshalPrefs(data []byte) string {
	var p prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return "preferences data is corrupt"
	}
	if p.FlashStyle < 0 || p.FlashStyle >= len(flashStyleNames) {
		return "preferences data is corrupt"
	}
	b.prefs = p
	return ""
}

// snapshot is the serialized form of a full game.
type snapshot struct {
	Params string  `json:"params"`
	Seed   int64   `json:"seed"`
	Start  []bool  `json:"start"`
	States []state `json:"states"`
	Pos    int     `json:"pos"`
}

// Serialize implements puzzle.Backend.
func (b *Backend) Serialize() []byte {
	data, err := json.Marshal(snapshot{
		Params: b.active.encode(),
		Seed:   b.seed,
		Start:  b.start,
		States: b.states,
		Pos:    b.pos,
	})
	if err != nil {
		panic(err)
	}
	return data
}

// Deserialize implements puzzle.Backend. On success the game identity and
// params hooks fire, matching the notification pattern of a load.
func (b *Backend) Deserialize(data []byte) string {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return "save data is corrupt"
	}
	p, errstr := decodeParams(snap.Params)
	if errstr != "" {
		return "save data is corrupt"
	}
	cells := p.W * p.H
	if len(snap.Start) != cells || len(snap.States) == 0 ||
		snap.Pos < 0 || snap.Pos >= len(snap.States) {
		return "save data is corrupt"
	}
	for _, s := range snap.States {
		if len(s.Lit) != cells || s.Cursor < 0 || s.Cursor >= cells {
			return "save data is corrupt"
		}
	}

	b.params = p
	b.active = p
	b.seed = snap.Seed
	b.start = snap.Start
	b.states = snap.States
	b.pos = snap.Pos
	b.pendingStart = nil
	b.pendingSeed = 0
	b.hooks.ParamsChanged()
	b.hooks.GameIDChanged()
	b.updateStatusBar()
	return ""
}

// Size implements puzzle.Backend.
func (b *Backend) Size(maxW, maxH int, userSize bool, dpr float64) (w, h int) {
	tile := int(float64(tileSize) * dpr)
	if tile < 1 {
		tile = tileSize
	}
	w, h = b.active.W*tile, b.active.H*tile
	if !userSize {
		// Shrink to fit the bounds, keeping whole tiles.
		for tile > 1 && (w > maxW || h > maxH) {
			tile--
			w, h = b.active.W*tile, b.active.H*tile
		}
	}
	return w, h
}

// Redraw implements puzzle.Backend.
func (b *Backend) Redraw(d puzzle.Drawer) {
	const (
		colourOff = 0
		colourOn  = 1
		colourCur = 2
	)
	d.StartDraw()
	s := b.current()
	for i, lit := range s.Lit {
		x, y := (i%b.active.W)*tileSize, (i/b.active.W)*tileSize
		colour := colourOff
		if lit {
			colour = colourOn
		}
		d.Rect(x, y, tileSize, tileSize, colour)
		if i == s.Cursor {
			d.Rect(x+1, y+1, tileSize-2, tileSize-2, colourCur)
		}
		if b.prefs.ShowCoords {
			d.Text(x+2, y+12, colourCur, fmt.Sprintf("%c%d", 'a'+i%b.active.W, i/b.active.W+1))
		}
	}
	d.EndDraw()
}
