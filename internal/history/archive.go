package history

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"sud/internal/providers"
	"sud/internal/structures"
	"sud/internal/usage/interfaces"
)

// ArchiveEntry is one archived day.
type ArchiveEntry struct {
	Minutes    int       `json:"minutes"`
	ArchivedAt time.Time `json:"archived_at"`
}

// ArchiveFile is the on-disk format for one month of archived days.
type ArchiveFile struct {
	Entries map[string]*ArchiveEntry `json:"entries"`
}

type ArchiveInterface interface {
	Has(date string) bool
	Store(date string, minutes int)
	Lookup(date string) (int, bool)
	Flush() error
	RestoreIndex() error
	Close()
}

// Archive keeps days pruned from the live database in monthly compressed
// files. Writes buffer in memory, Flush is the only method that touches
// disk. Lookups never remove anything, the archive is terminal storage.
type Archive struct {
	mu         sync.RWMutex
	dir        string
	index      map[string]map[string]struct{}      // month → set of date keys
	pending    map[string]map[string]*ArchiveEntry // month → pending entries
	loaded     map[string]*ArchiveFile             // month → cached archive file
	archiveTTL time.Duration
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewArchive(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) ArchiveInterface {
	if conf.History.ArchiveDir == "" {
		return &noopArchive{}
	}
	return &Archive{
		dir:        conf.History.ArchiveDir,
		index:      make(map[string]map[string]struct{}),
		pending:    make(map[string]map[string]*ArchiveEntry),
		loaded:     make(map[string]*ArchiveFile),
		archiveTTL: conf.History.ArchiveTTL,
		compressor: compressor,
		logger:     logger,
	}
}

func (a *Archive) Has(date string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if days, ok := a.index[monthKey(date)]; ok {
		_, exists := days[date]
		return exists
	}
	return false
}

// Store buffers a day for the next Flush. No disk I/O is performed.
func (a *Archive) Store(date string, minutes int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	month := monthKey(date)
	entry := &ArchiveEntry{
		Minutes:    minutes,
		ArchivedAt: time.Now(),
	}

	if a.pending[month] == nil {
		a.pending[month] = make(map[string]*ArchiveEntry)
	}
	a.pending[month][date] = entry

	if a.index[month] == nil {
		a.index[month] = make(map[string]struct{})
	}
	a.index[month][date] = struct{}{}
}

// Lookup reads a day from the pending buffer or the monthly file. Files
// are loaded lazily and cached.
func (a *Archive) Lookup(date string) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	month := monthKey(date)
	if entries, ok := a.pending[month]; ok {
		if entry, ok := entries[date]; ok {
			return entry.Minutes, true
		}
	}

	af := a.getOrLoadArchiveFile(month)
	if af == nil {
		return 0, false
	}
	entry, ok := af.Entries[date]
	if !ok {
		return 0, false
	}
	return entry.Minutes, true
}

// Flush writes all pending entries to their monthly files and drops
// entries older than archiveTTL.
func (a *Archive) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for month := range a.pending {
		af := a.getOrLoadArchiveFile(month)
		if af == nil {
			af = &ArchiveFile{Entries: make(map[string]*ArchiveEntry)}
		}

		for date, entry := range a.pending[month] {
			af.Entries[date] = entry
		}

		if a.archiveTTL > 0 {
			now := time.Now()
			for date, entry := range af.Entries {
				if now.Sub(entry.ArchivedAt) > a.archiveTTL {
					delete(af.Entries, date)
					if idx, ok := a.index[month]; ok {
						delete(idx, date)
					}
				}
			}
		}

		if len(af.Entries) > 0 {
			if err := a.writeArchiveFile(month, af); err != nil {
				return err
			}
			a.loaded[month] = af
		} else {
			os.Remove(a.archiveFilePath(month))
			delete(a.loaded, month)
		}

		// Commit: clear pending only after a successful write
		delete(a.pending, month)
	}
	return nil
}

// RestoreIndex scans the archive directory and rebuilds the in-memory
// index of archived days. Called once at startup.
func (a *Archive) RestoreIndex() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return err
	}

	files, err := filepath.Glob(filepath.Join(a.dir, "*.archive.zst"))
	if err != nil {
		return err
	}

	for _, file := range files {
		month := extractMonth(file)
		af := a.loadArchiveFileFromDisk(month)
		if af == nil {
			continue
		}

		a.index[month] = make(map[string]struct{}, len(af.Entries))
		for date := range af.Entries {
			a.index[month][date] = struct{}{}
		}
		// Only index keys are kept, the data stays on disk
	}
	return nil
}

func (a *Archive) Close() {
	a.compressor.Close()
}

// getOrLoadArchiveFile returns the cached monthly file or loads it from
// disk. Must be called under a.mu.Lock().
func (a *Archive) getOrLoadArchiveFile(month string) *ArchiveFile {
	if af, ok := a.loaded[month]; ok {
		return af
	}
	af := a.loadArchiveFileFromDisk(month)
	if af != nil {
		a.loaded[month] = af
	}
	return af
}

func (a *Archive) loadArchiveFileFromDisk(month string) *ArchiveFile {
	path := a.archiveFilePath(month)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			a.logger.Errorf(providers.TypeApp, "Failed to read archive file %s: %s", path, err)
		}
		return nil
	}

	decompressed, err := a.compressor.Decompress(data)
	if err != nil {
		a.logger.Errorf(providers.TypeApp, "Failed to decompress archive file %s: %s", path, err)
		return nil
	}

	var af ArchiveFile
	if err := json.Unmarshal(decompressed, &af); err != nil {
		a.logger.Errorf(providers.TypeApp, "Failed to parse archive file %s: %s", path, err)
		return nil
	}

	if af.Entries == nil {
		af.Entries = make(map[string]*ArchiveEntry)
	}
	return &af
}

func (a *Archive) writeArchiveFile(month string, af *ArchiveFile) error {
	jsonData, err := json.Marshal(af)
	if err != nil {
		return err
	}

	compressed, err := a.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	path := a.archiveFilePath(month)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, compressed, 0644); err != nil {
		return err
	}

	return os.Rename(tmpFile, path)
}

func (a *Archive) archiveFilePath(month string) string {
	return filepath.Join(a.dir, month+".archive.zst")
}

// monthKey maps "2026-03-15" to "2026-03".
func monthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// extractMonth maps "2026-03.archive.zst" back to "2026-03".
func extractMonth(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ".archive.zst")
}

// noopArchive is used when no archive directory is configured. Pruned
// days are then simply dropped.
type noopArchive struct{}

func (n *noopArchive) Has(_ string) bool           { return false }
func (n *noopArchive) Store(_ string, _ int)       {}
func (n *noopArchive) Lookup(_ string) (int, bool) { return 0, false }
func (n *noopArchive) Flush() error                { return nil }
func (n *noopArchive) RestoreIndex() error         { return nil }
func (n *noopArchive) Close()                      {}
