package batch

import (
	"fmt"
	"path"
	"strings"

	"github.com/lehigh-university-libraries/framer/internal/layout"
	"github.com/lehigh-university-libraries/framer/internal/render"
)

// DefaultArchiveName is the suggested name of a multi-image export.
const DefaultArchiveName = "polaroid-frames.zip"

// BaseName strips the final extension from a display name.
func BaseName(displayName string) string {
	name := path.Base(strings.ReplaceAll(displayName, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		return name[:i]
	}
	return name
}

// EntryName returns "{base}_{mode}.{ext}" for an exported image.
func EntryName(displayName string, mode layout.Mode, format render.Format) string {
	base := BaseName(displayName)
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%s_%s.%s", base, mode, format.Extension())
}

// nameResolver hands out unique archive entry names. A repeated name gets a
// "-2", "-3", ... suffix before the extension, in export order.
type nameResolver struct {
	claimed  map[string]bool
	counters map[string]int
}

func newNameResolver() *nameResolver {
	return &nameResolver{
		claimed:  make(map[string]bool),
		counters: make(map[string]int),
	}
}

func (r *nameResolver) Resolve(requested string) string {
	if !r.claimed[requested] {
		r.claimed[requested] = true
		return requested
	}

	ext := path.Ext(requested)
	stem := strings.TrimSuffix(requested, ext)

	counter := r.counters[requested]
	if counter == 0 {
		counter = 2
	}
	for {
		candidate := fmt.Sprintf("%s-%d%s", stem, counter, ext)
		counter++
		if !r.claimed[candidate] {
			r.counters[requested] = counter
			r.claimed[candidate] = true
			return candidate
		}
	}
}
