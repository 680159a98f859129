// Package metadata keeps a query-friendly catalog of everything the exporter
// writes. Each artifact gets a manifest file, and a table-style metadata
// document tracks the sequence of export snapshots so downstream consumers can
// pick up the latest state without listing the whole output directory.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Artifact describes a single exported file: an HTML report or a parquet
// end-of-day snapshot.
type Artifact struct {
	Path        string         `json:"path"`
	Kind        string         `json:"kind"`
	FileSize    int64          `json:"file_size_in_bytes"`
	RecordCount int64          `json:"record_count"`
	Partition   map[string]any `json:"partition"`
	Timestamp   time.Time      `json:"-"`
}

// ManifestEntry is the per-artifact record kept in a manifest file.
type ManifestEntry struct {
	Status   int      `json:"status"`
	Artifact Artifact `json:"artifact"`
}

// Snapshot holds minimal information required to replay the export history.
type Snapshot struct {
	SnapshotID  int64  `json:"snapshot-id"`
	TimestampMs int64  `json:"timestamp-ms"`
	Manifest    string `json:"manifest-list"`
}

// CatalogMetadata is the high level metadata document for an export catalog.
type CatalogMetadata struct {
	FormatVersion     int        `json:"format-version"`
	CatalogUUID       string     `json:"catalog-uuid"`
	Location          string     `json:"location"`
	CurrentSnapshotID int64      `json:"current-snapshot-id"`
	Snapshots         []Snapshot `json:"snapshots"`
}

// Generator incrementally builds the export catalog under basePath.
type Generator struct {
	basePath    string
	catalogName string
	catalogUUID string
	snapshots   []Snapshot
}

// NewGenerator returns a catalog generator rooted at basePath.
func NewGenerator(basePath, catalogName string) *Generator {
	return &Generator{
		basePath:    basePath,
		catalogName: catalogName,
		catalogUUID: uuid.NewString(),
	}
}

// AddArtifact records a newly written export file and updates the catalog.
func (g *Generator) AddArtifact(a Artifact) error {
	snapID := a.Timestamp.UnixNano()
	manifestFile := fmt.Sprintf("manifest-%d.json", snapID)
	manifestPath := filepath.Join(g.basePath, "metadata", manifestFile)
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o755); err != nil {
		return err
	}
	entry := ManifestEntry{Status: 1, Artifact: a}
	b, err := json.Marshal([]ManifestEntry{entry})
	if err != nil {
		return err
	}
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return err
	}
	snapshot := Snapshot{
		SnapshotID:  snapID,
		TimestampMs: a.Timestamp.UnixMilli(),
		Manifest:    manifestFile,
	}
	g.snapshots = append(g.snapshots, snapshot)
	return g.writeCatalogMetadata()
}

func (g *Generator) writeCatalogMetadata() error {
	if len(g.snapshots) == 0 {
		return nil
	}
	cm := CatalogMetadata{
		FormatVersion:     2,
		CatalogUUID:       g.catalogUUID,
		Location:          g.basePath,
		CurrentSnapshotID: g.snapshots[len(g.snapshots)-1].SnapshotID,
		Snapshots:         g.snapshots,
	}
	metaPath := filepath.Join(g.basePath, "metadata", "metadata.json")
	b, err := json.MarshalIndent(cm, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(metaPath, b, 0o644)
}

// WriteCatalogEntry creates a simple catalog entry pointing at the metadata document.
func (g *Generator) WriteCatalogEntry(catalogDir string) error {
	metaLoc := filepath.Join(g.basePath, "metadata", "metadata.json")
	entry := map[string]string{
		"name":              g.catalogName,
		"metadata_location": metaLoc,
	}
	if err := os.MkdirAll(catalogDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(catalogDir, fmt.Sprintf("%s.json", g.catalogName))
	b, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
