package midi

import "strings"

// Profile captures everything device-specific about a grid controller: how
// port names are recognized, how note numbers map to the 64-slot linear pad
// index, and the SysEx bytes for the vendor's LED protocol. The adapter
// itself is profile-agnostic.
type Profile struct {
	Name            string
	PortSubstrings  []string // case-insensitive; any match qualifies a port
	PreferSubstring string   // among matches, prefer the port containing this
	VendorID        [3]byte
	DeviceID        byte

	// NoteToIndex maps a raw note number to a linear pad index in [0,63], or
	// ok=false if the note falls outside the 8x8 grid region (side/top
	// buttons, out-of-range notes).
	NoteToIndex func(note uint8) (index int, ok bool)
	// IndexToNote is the inverse, used when sending LED updates.
	IndexToNote func(index int) uint8
}

// LaunchpadX is the Novation Launchpad X profile: grid notes 11-88 laid out
// in 8 rows of 10 (columns 1-8 used, 9 is the side scene column we ignore),
// row 0 = notes 11-18 ... row 7 = notes 81-88. Linear index follows
// model.LinearIndexToXY's y*8+x convention with row==y, col==x.
var LaunchpadX = Profile{
	Name:            "Launchpad X",
	PortSubstrings:  []string{"launchpad x", "launchpad mk3"},
	PreferSubstring: "midi 1",
	VendorID:        [3]byte{0x00, 0x20, 0x29},
	DeviceID:        0x0C,
	NoteToIndex: func(note uint8) (int, bool) {
		row := int(note/10) - 1
		col := int(note%10) - 1
		if row < 0 || row > 7 || col < 0 || col > 7 {
			return 0, false
		}
		return row*8 + col, true
	},
	IndexToNote: func(index int) uint8 {
		row, col := index/8, index%8
		return uint8((row+1)*10 + col + 1)
	},
}

// LaunchpadMiniMK3 shares the Launchpad X grid layout and SysEx device id
// family; Novation kept the programmer-mode protocol identical across the
// MK3 line.
var LaunchpadMiniMK3 = Profile{
	Name:            "Launchpad Mini MK3",
	PortSubstrings:  []string{"launchpad mini"},
	PreferSubstring: "midi 1",
	VendorID:        [3]byte{0x00, 0x20, 0x29},
	DeviceID:        0x0D,
	NoteToIndex:     LaunchpadX.NoteToIndex,
	IndexToNote:     LaunchpadX.IndexToNote,
}

// LaunchpadProMK3 likewise reuses the grid layout; its device id differs.
var LaunchpadProMK3 = Profile{
	Name:            "Launchpad Pro MK3",
	PortSubstrings:  []string{"launchpad pro"},
	PreferSubstring: "midi 1",
	VendorID:        [3]byte{0x00, 0x20, 0x29},
	DeviceID:        0x0E,
	NoteToIndex:     LaunchpadX.NoteToIndex,
	IndexToNote:     LaunchpadX.IndexToNote,
}

// KnownProfiles is the device matcher's search list.
var KnownProfiles = []Profile{LaunchpadX, LaunchpadMiniMK3, LaunchpadProMK3}

// MatchPort finds the best candidate port name for profile among candidates,
// preferring one containing PreferSubstring, else the first match. Reports
// ok=false if no candidate matches.
func (p Profile) MatchPort(candidates []string) (string, bool) {
	var fallback string
	found := false
	for _, name := range candidates {
		lower := strings.ToLower(name)
		for _, sub := range p.PortSubstrings {
			if strings.Contains(lower, sub) {
				if !found {
					fallback = name
					found = true
				}
				if p.PreferSubstring != "" && strings.Contains(lower, p.PreferSubstring) {
					return name, true
				}
				break
			}
		}
	}
	return fallback, found
}

// DetectProfile picks the first known profile with a matching candidate port.
func DetectProfile(candidates []string) (Profile, string, bool) {
	for _, p := range KnownProfiles {
		if name, ok := p.MatchPort(candidates); ok {
			return p, name, true
		}
	}
	return Profile{}, "", false
}
