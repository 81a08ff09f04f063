package imaging

// CanonicalSize is the fixed edge length every generation result is
// normalized to before it leaves the pipeline.
const CanonicalSize = 1024

// Profile describes a target logical resolution. Sub-canonical profiles
// render as pixel art: the image is downscaled to the logical size,
// optionally quantized to a palette, then scaled back up to the canonical
// canvas so every downstream consumer sees one fixed size.
type Profile struct {
	Key         string
	Width       int
	Height      int
	PaletteSize int // 0 means no palette limit
}

// Canonical reports whether the profile targets the canonical canvas directly.
func (p Profile) Canonical() bool {
	return p.Width == CanonicalSize && p.Height == CanonicalSize
}

var profiles = []Profile{
	{Key: "32x32", Width: 32, Height: 32, PaletteSize: 16},
	{Key: "64x64", Width: 64, Height: 64, PaletteSize: 256},
	{Key: "512x512", Width: 512, Height: 512},
	{Key: "768x768", Width: 768, Height: 768},
	{Key: "1024x1024", Width: 1024, Height: 1024},
}

// DefaultProfile is the canonical full-resolution profile.
func DefaultProfile() Profile {
	return profiles[len(profiles)-1]
}

// ProfileFor resolves a profile by its key, e.g. "32x32".
func ProfileFor(key string) (Profile, bool) {
	for _, p := range profiles {
		if p.Key == key {
			return p, true
		}
	}
	return Profile{}, false
}

// ProfileKeys lists the supported profile keys in ascending resolution order.
func ProfileKeys() []string {
	keys := make([]string, len(profiles))
	for i, p := range profiles {
		keys[i] = p.Key
	}
	return keys
}

// Profiles returns a copy of the supported profile table.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}
