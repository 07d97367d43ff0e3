package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"cppsema/internal/diag"
	"cppsema/internal/source"
)

// diskCacheSchema changes whenever DiskPayload or Report changes shape.
const diskCacheSchema uint16 = 2

// DiskCache stores per-file analysis results under
// $XDG_CACHE_HOME/<app>/units, keyed by CacheKey. Symbol tables are never
// stored; a hit replays diagnostics and the name report only.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

type DiskPayload struct {
	Schema      uint16
	Path        string
	Diagnostics []CachedDiagnostic
	Report      *Report
}

// CachedDiagnostic is a diagnostic with file-relative offsets. A unit is
// a single file, so every span of it lives in that file.
type CachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	Start    uint32
	End      uint32
	Notes    []CachedNote
	Fixes    []CachedFix
}

type CachedNote struct {
	Start, End uint32
	Msg        string
}

type CachedFix struct {
	Title string
	Edits []CachedEdit
}

type CachedEdit struct {
	Start, End uint32
	NewText    string
}

// CacheKey hashes file content together with the engine fingerprint.
func CacheKey(content []byte, fingerprint string) uint64 {
	d := xxhash.New()
	// writes to a digest never fail
	_, _ = d.Write(content)
	_, _ = d.WriteString("\x00" + fingerprint)
	_, _ = d.WriteString(strconv.Itoa(int(diskCacheSchema)))
	return d.Sum64()
}

// OpenDiskCache creates the cache directory. dir overrides the default
// location when non-empty.
func OpenDiskCache(app, dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(filepath.Join(dir, "units"), 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key uint64) string {
	return filepath.Join(c.dir, "units", strconv.FormatUint(key, 16)+".mp")
}

// Put writes payload atomically through a temp file and rename.
func (c *DiskCache) Put(key uint64, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()      //nolint:errcheck
		_ = os.Remove(tmp) //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck
		return err
	}
	return os.Rename(tmp, p)
}

// Get reports false on a miss or when the entry has an old schema.
func (c *DiskCache) Get(key uint64, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("cache entry %x: %w", key, err)
	}
	return out.Schema == diskCacheSchema, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	units := filepath.Join(c.dir, "units")
	if err := os.RemoveAll(units); err != nil {
		return err
	}
	return os.MkdirAll(units, 0o755)
}

func toCached(items []diag.Diagnostic) []CachedDiagnostic {
	out := make([]CachedDiagnostic, 0, len(items))
	for _, d := range items {
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		for _, f := range d.Fixes {
			cf := CachedFix{Title: f.Title}
			for _, e := range f.Edits {
				cf.Edits = append(cf.Edits, CachedEdit{Start: e.Span.Start, End: e.Span.End, NewText: e.NewText})
			}
			cd.Fixes = append(cd.Fixes, cf)
		}
		out = append(out, cd)
	}
	return out
}

// replay rebuilds the diagnostics of a cached unit against file.
func replay(cached []CachedDiagnostic, file source.FileID, bag *diag.Bag) {
	span := func(start, end uint32) source.Span { return source.Span{File: file, Start: start, End: end} }
	for _, cd := range cached {
		d := diag.New(diag.Severity(cd.Severity), diag.Code(cd.Code), span(cd.Start, cd.End), cd.Message)
		for _, n := range cd.Notes {
			d = d.WithNote(span(n.Start, n.End), n.Msg)
		}
		for _, f := range cd.Fixes {
			edits := make([]diag.FixEdit, len(f.Edits))
			for i, e := range f.Edits {
				edits[i] = diag.FixEdit{Span: span(e.Start, e.End), NewText: e.NewText}
			}
			d = d.WithFix(f.Title, edits...)
		}
		bag.Add(d)
	}
}
