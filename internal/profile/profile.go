package profile

import (
	"sort"

	"github.com/AnyUserName/blogimg-cli/internal/compress"
)

// DefaultName is used when no profile is requested.
const DefaultName = "blog-header"

// Profile defines compression parameters for one kind of blog image.
type Profile struct {
	Name        string
	TargetKB    int // soft size bound
	ToleranceKB int // slack on top of TargetKB
	MaxWidth    int // bounding box, aspect preserved
	MaxHeight   int
	Ladder      []int // descending webp qualities
}

// stepLadder returns from, from-step, ... down to and including to.
func stepLadder(from, to, step int) []int {
	var l []int
	for q := from; q >= to; q -= step {
		l = append(l, q)
	}
	return l
}

// Built-in profiles.
var profiles = map[string]Profile{
	"blog-header": {
		Name:        "blog-header",
		TargetKB:    50,
		ToleranceKB: 5,
		MaxWidth:    1280,
		MaxHeight:   720,
		Ladder:      stepLadder(85, 30, 5),
	},
	"strict": {
		Name:      "strict",
		TargetKB:  50,
		MaxWidth:  1280,
		MaxHeight: 720,
		Ladder:    stepLadder(80, 30, 10),
	},
	"thumbnail": {
		Name:      "thumbnail",
		TargetKB:  45,
		MaxWidth:  1280,
		MaxHeight: 720,
		Ladder:    []int{80, 70, 60, 50, 40, 30},
	},
	"large": {
		Name:        "large",
		TargetKB:    60,
		ToleranceKB: 5,
		MaxWidth:    1280,
		MaxHeight:   720,
		Ladder:      stepLadder(85, 30, 5),
	},
}

// Get returns a profile by name. Falls back to blog-header if unknown.
// The returned ladder is a copy and may be modified.
func Get(name string) Profile {
	p, ok := profiles[name]
	if !ok {
		p = profiles[DefaultName]
		if name != "" {
			p.Name = name // preserve requested name
		}
	}
	p.Ladder = append([]int(nil), p.Ladder...)
	return p
}

// Known reports whether name is a built-in profile.
func Known(name string) bool {
	_, ok := profiles[name]
	return ok
}

// Names lists the built-in profiles in sorted order.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Options converts the profile into compressor options.
func (p Profile) Options() compress.Options {
	return compress.Options{
		TargetKB:    p.TargetKB,
		ToleranceKB: p.ToleranceKB,
		MaxWidth:    p.MaxWidth,
		MaxHeight:   p.MaxHeight,
		Ladder:      append([]int(nil), p.Ladder...),
	}
}
