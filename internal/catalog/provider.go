package catalog

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"backend-hikinghelper/internal/logging"
	"backend-hikinghelper/internal/metrics"
	"backend-hikinghelper/internal/trail"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

//go:embed data/*.json
var bundled embed.FS

var (
	ErrRegionNotFound = errors.New("region not found")
	ErrLoadFailed     = errors.New("failed to load trail data")
	ErrTrailNotFound  = errors.New("trail not found")
)

const maxParallelLoads = 4

// Snapshot is an immutable view of the catalog for one region selection.
type Snapshot struct {
	Regions  []string      `json:"regions"`
	Trails   []trail.Trail `json:"trails"`
	LoadedAt time.Time     `json:"loaded_at"`
}

// Provider loads per-region trail files and publishes the latest catalog.
// Loaded snapshots are kept per region selection so switching back to a
// previous selection does not hit the files again.
type Provider struct {
	fsys    fs.FS
	loadMu  sync.Mutex
	current atomic.Pointer[Snapshot]
	byKey   sync.Map
	logger  zerolog.Logger
}

// NewProvider reads region files named <code>.json from the root of fsys.
func NewProvider(fsys fs.FS) *Provider {
	p := &Provider{
		fsys:   fsys,
		logger: logging.Component("catalog"),
	}
	p.current.Store(&Snapshot{Regions: []string{}, Trails: []trail.Trail{}})
	return p
}

// NewBundledProvider serves the trail data compiled into the binary.
func NewBundledProvider() *Provider {
	sub, err := fs.Sub(bundled, "data")
	if err != nil {
		panic(err)
	}
	return NewProvider(sub)
}

// NewProviderFromDir uses dir when set and the bundled data otherwise.
func NewProviderFromDir(dir string) *Provider {
	if dir == "" {
		return NewBundledProvider()
	}
	return NewProvider(os.DirFS(dir))
}

// Regions lists the region codes that have a data file, sorted.
func (p *Provider) Regions() ([]string, error) {
	matches, err := fs.Glob(p.fsys, "*.json")
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		codes = append(codes, strings.ToUpper(strings.TrimSuffix(path.Base(m), ".json")))
	}
	slices.Sort(codes)
	return codes, nil
}

// Snapshot returns the most recently published catalog. It is never nil.
func (p *Provider) Snapshot() *Snapshot {
	return p.current.Load()
}

// Ensure returns the snapshot already loaded for this region selection, and
// loads it otherwise.
func (p *Provider) Ensure(ctx context.Context, regions []string) (*Snapshot, error) {
	want, err := p.resolve(regions)
	if err != nil {
		return nil, err
	}
	if snap, ok := p.reuse(want); ok {
		return snap, nil
	}

	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	// A concurrent caller may have loaded this selection while we waited.
	if snap, ok := p.reuse(want); ok {
		return snap, nil
	}
	return p.loadLocked(ctx, want)
}

// reuse publishes and returns the snapshot already loaded for codes.
func (p *Provider) reuse(codes []string) (*Snapshot, bool) {
	v, ok := p.byKey.Load(selectionKey(codes))
	if !ok {
		return nil, false
	}
	snap := v.(*Snapshot)
	p.current.Store(snap)
	return snap, true
}

// Load reads the given regions (all bundled regions when empty) in parallel
// and publishes the merged catalog. On failure the previous snapshot stays.
func (p *Provider) Load(ctx context.Context, regions []string) (*Snapshot, error) {
	want, err := p.resolve(regions)
	if err != nil {
		return nil, err
	}
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	return p.loadLocked(ctx, want)
}

// loadLocked must be called with loadMu held.
func (p *Provider) loadLocked(ctx context.Context, codes []string) (*Snapshot, error) {
	start := time.Now()
	defer func() { metrics.CatalogLoadDuration.Observe(time.Since(start).Seconds()) }()

	perRegion := make([][]trail.Trail, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, code := range codes {
		g.Go(func() error {
			trails, err := p.readRegion(gctx, code)
			if err != nil {
				return err
			}
			perRegion[i] = trails
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.CatalogLoads.WithLabelValues(metrics.OutcomeError).Inc()
		p.logger.Error().Err(err).Strs("regions", codes).Msg("catalog load failed")
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	seen := map[int]struct{}{}
	merged := make([]trail.Trail, 0)
	for _, trails := range perRegion {
		for _, t := range trails {
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			merged = append(merged, t)
		}
	}

	snap := &Snapshot{Regions: codes, Trails: merged, LoadedAt: time.Now()}
	metrics.CatalogLoads.WithLabelValues(metrics.OutcomeSuccess).Inc()
	p.current.Store(snap)
	p.byKey.Store(selectionKey(codes), snap)
	p.logger.Info().Strs("regions", codes).Int("trails", len(merged)).Msg("catalog loaded")
	return snap, nil
}

func (p *Provider) readRegion(ctx context.Context, code string) ([]trail.Trail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := fs.ReadFile(p.fsys, strings.ToLower(code)+".json")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRegionNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", code, err)
	}
	var trails []trail.Trail
	if err := json.Unmarshal(raw, &trails); err != nil {
		return nil, fmt.Errorf("decode %s: %w", code, err)
	}
	return trails, nil
}

// resolve normalizes the requested regions into a sorted, de-duplicated list
// of codes. An empty request means every available region.
func (p *Provider) resolve(regions []string) ([]string, error) {
	if len(regions) == 0 {
		return p.Regions()
	}
	codes := make([]string, 0, len(regions))
	for _, r := range regions {
		if code := trail.NormalizeRegion(r); code != "" {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)
	return slices.Compact(codes), nil
}

func selectionKey(codes []string) string {
	return strings.Join(codes, ",")
}

// Find looks a trail up by id across every available region.
func (p *Provider) Find(ctx context.Context, id int) (trail.Trail, error) {
	snap, err := p.Ensure(ctx, nil)
	if err != nil {
		return trail.Trail{}, err
	}
	for _, t := range snap.Trails {
		if t.ID == id {
			return t, nil
		}
	}
	return trail.Trail{}, ErrTrailNotFound
}
