// Package versions assigns identifiers to trained-model snapshots, tracks
// their performance history, and enforces a retention bound. Version history
// is rebuilt from the per-version metadata descriptors on disk, so it
// survives process restarts.
package versions

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wacky-klingon/chronos-foundry/chronos-go/forecast"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/partition"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/serialization"
)

const (
	// MetadataName is the per-version descriptor file name.
	MetadataName = "training_metadata.json"
	// ModelName is the model payload file name inside a version directory.
	ModelName = "model.json"

	// DefaultMaxVersions bounds the retained set when no limit is configured.
	DefaultMaxVersions = 10

	versionIDTimestamp = "20060102_150405"
)

// Metadata is the descriptor written alongside each version's model payload.
type Metadata struct {
	VersionID         string                 `json:"version_id"`
	DateRange         []string               `json:"date_range"`
	Metrics           forecast.Metrics       `json:"performance_metrics"`
	TrainingTimestamp time.Time              `json:"training_timestamp"`
	ModelConfig       map[string]interface{} `json:"model_config"`
	CovariateConfig   map[string]interface{} `json:"covariate_config"`
}

// Info is one tracked version.
type Info struct {
	VersionID string           `json:"version_id"`
	Location  string           `json:"model_path"`
	DateRange []string         `json:"date_range"`
	Metrics   forecast.Metrics `json:"performance_metrics"`
	CreatedAt time.Time        `json:"created_at"`
	IsCurrent bool             `json:"is_current,omitempty"`
}

// History is the full version-tracking view.
type History struct {
	CurrentVersion  string                      `json:"current_version"`
	PreviousVersion string                      `json:"previous_version"`
	Versions        map[string]Info             `json:"model_versions"`
	Performance     map[string]forecast.Metrics `json:"performance_history"`
	TotalVersions   int                         `json:"total_versions"`
}

// RollbackResult reports the outcome of a rollback.
type RollbackResult struct {
	Success        bool   `json:"success"`
	RolledBack     bool   `json:"rollback"`
	CurrentVersion string `json:"current_version"`
	FailedVersion  string `json:"failed_version"`
	Message        string `json:"message"`
}

// Registry owns the version storage root: one subdirectory per version id,
// each holding the model payload and its metadata descriptor.
type Registry struct {
	root        string
	maxVersions int

	versions    map[string]Info
	performance map[string]forecast.Metrics
	current     string
	previous    string
}

// NewRegistry opens a registry rooted at root, creating it if needed, and
// rebuilds version history from the metadata descriptors found on disk.
func NewRegistry(root string, maxVersions int) (*Registry, error) {
	if maxVersions < 1 {
		maxVersions = DefaultMaxVersions
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrapf(err, "error creating version root %s", root)
	}

	r := &Registry{
		root:        root,
		maxVersions: maxVersions,
		versions:    make(map[string]Info),
		performance: make(map[string]forecast.Metrics),
	}
	r.reload()
	return r, nil
}

// reload scans the storage root for version directories and restores
// tracking state. The two most recently created versions become the current
// and previous pointers.
func (r *Registry) reload() {
	entries, err := ioutil.ReadDir(r.root)
	if err != nil {
		log.Printf("failed to scan version root %s: %v", r.root, err)
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(r.root, entry.Name())
		var meta Metadata
		if err := serialization.Decode(filepath.Join(dir, MetadataName), &meta); err != nil {
			continue
		}
		if meta.VersionID == "" {
			meta.VersionID = entry.Name()
		}
		r.versions[meta.VersionID] = Info{
			VersionID: meta.VersionID,
			Location:  dir,
			DateRange: meta.DateRange,
			Metrics:   meta.Metrics,
			CreatedAt: meta.TrainingTimestamp,
		}
		r.performance[meta.VersionID] = meta.Metrics
	}

	ordered := r.byCreation()
	if len(ordered) > 0 {
		r.current = ordered[len(ordered)-1].VersionID
	}
	if len(ordered) > 1 {
		r.previous = ordered[len(ordered)-2].VersionID
	}
	if len(r.versions) > 0 {
		log.Printf("restored %d model versions from %s", len(r.versions), r.root)
	}
}

// byCreation returns tracked versions ordered oldest first.
func (r *Registry) byCreation() []Info {
	infos := make([]Info, 0, len(r.versions))
	for _, info := range r.versions {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// GenerateVersionID builds a version identifier from the date range and the
// current wall clock. Collisions require two versions of the same range
// within the same second.
func (r *Registry) GenerateVersionID(dr partition.DateRange) string {
	return fmt.Sprintf("model_%s_%s_%s",
		dr.Start.Format("20060102"),
		dr.End.Format("20060102"),
		time.Now().Format(versionIDTimestamp))
}

// SaveVersion moves a transient model snapshot into the version-named
// directory and writes its metadata descriptor. A missing snapshot is a
// logged data-integrity gap: metadata is still written but the version will
// not be loadable.
func (r *Registry) SaveVersion(modelPath, versionID string, dr partition.DateRange, metrics forecast.Metrics, modelConfig, covariateConfig map[string]interface{}) (string, error) {
	versionDir := filepath.Join(r.root, versionID)
	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return "", errors.Wrapf(err, "error creating version dir %s", versionDir)
	}

	if _, err := os.Stat(modelPath); err == nil {
		if err := os.Rename(modelPath, filepath.Join(versionDir, ModelName)); err != nil {
			return "", errors.Wrapf(err, "error moving model into %s", versionDir)
		}
	} else {
		log.Printf("model snapshot %s does not exist, writing metadata only for %s", modelPath, versionID)
	}

	meta := Metadata{
		VersionID:         versionID,
		DateRange:         []string{dr.Start.Format(partition.DateLayout), dr.End.Format(partition.DateLayout)},
		Metrics:           metrics,
		TrainingTimestamp: time.Now(),
		ModelConfig:       modelConfig,
		CovariateConfig:   covariateConfig,
	}
	if err := serialization.Encode(filepath.Join(versionDir, MetadataName), meta); err != nil {
		return "", errors.Wrapf(err, "error writing version metadata")
	}

	log.Printf("model version saved to: %s", versionDir)
	return versionDir, nil
}

// UpdateTracking records a new version and rotates the current/previous
// pointers.
func (r *Registry) UpdateTracking(versionID, location string, dr partition.DateRange, metrics forecast.Metrics) {
	r.previous = r.current
	r.current = versionID

	r.versions[versionID] = Info{
		VersionID: versionID,
		Location:  location,
		DateRange: []string{dr.Start.Format(partition.DateLayout), dr.End.Format(partition.DateLayout)},
		Metrics:   metrics,
		CreatedAt: time.Now(),
	}
	r.performance[versionID] = metrics
}

// PreviousPerformance reads the performance metrics recorded for the model at
// the given location, falling back to a neutral baseline when unavailable.
func (r *Registry) PreviousPerformance(modelPath string) forecast.Metrics {
	var meta Metadata
	metaPath := filepath.Join(modelPath, MetadataName)
	if err := serialization.Decode(metaPath, &meta); err != nil {
		log.Printf("failed to get previous performance from %s: %v", metaPath, err)
		return forecast.Metrics{MAE: 1, RMSE: 1, MASE: 1, DirectionalAccuracy: 0.5}
	}
	return meta.Metrics
}

// Improvement returns the fractional reduction of the primary error metric
// relative to previous, floored at zero: a regression reads as 0, not as a
// negative number.
func (r *Registry) Improvement(current, previous forecast.Metrics) float64 {
	if previous.MAE == 0 {
		return 0
	}
	improvement := (previous.MAE - current.MAE) / previous.MAE
	if improvement < 0 {
		return 0
	}
	return improvement
}

// Cleanup evicts the oldest versions until at most the configured maximum
// remain. Failures are logged, not raised: retention is secondary
// bookkeeping.
func (r *Registry) Cleanup() {
	if len(r.versions) <= r.maxVersions {
		return
	}

	ordered := r.byCreation()
	for _, info := range ordered[:len(r.versions)-r.maxVersions] {
		if err := os.RemoveAll(info.Location); err != nil {
			log.Printf("failed to remove version dir %s: %v", info.Location, err)
		}
		delete(r.versions, info.VersionID)
		delete(r.performance, info.VersionID)
		log.Printf("cleaned up old version: %s", info.VersionID)
	}
}

// Rollback discards the failed version's tracking record and restores the
// current pointer to the previous version. On-disk artifacts of the failed
// version are left in place.
func (r *Registry) Rollback(failedVersionID string) RollbackResult {
	log.Printf("rolling back from failed version %s", failedVersionID)

	delete(r.versions, failedVersionID)
	delete(r.performance, failedVersionID)

	if r.previous != "" {
		r.current = r.previous
		log.Printf("rolled back to version: %s", r.current)
	}

	return RollbackResult{
		Success:        false,
		RolledBack:     true,
		CurrentVersion: r.current,
		FailedVersion:  failedVersionID,
		Message:        "model performance below threshold, rolled back to previous version",
	}
}

// SwitchTo makes a tracked version current.
func (r *Registry) SwitchTo(versionID string) bool {
	if _, ok := r.versions[versionID]; !ok {
		log.Printf("version %s not found", versionID)
		return false
	}
	r.previous = r.current
	r.current = versionID
	log.Printf("switched to version: %s", versionID)
	return true
}

// CurrentVersion returns the id of the current version, if any.
func (r *Registry) CurrentVersion() string {
	return r.current
}

// PreviousVersion returns the id of the previous version, if any.
func (r *Registry) PreviousVersion() string {
	return r.previous
}

// GetHistory returns the complete tracking view.
func (r *Registry) GetHistory() History {
	versions := make(map[string]Info, len(r.versions))
	for id, info := range r.versions {
		versions[id] = info
	}
	performance := make(map[string]forecast.Metrics, len(r.performance))
	for id, m := range r.performance {
		performance[id] = m
	}
	return History{
		CurrentVersion:  r.current,
		PreviousVersion: r.previous,
		Versions:        versions,
		Performance:     performance,
		TotalVersions:   len(r.versions),
	}
}

// List returns tracked versions, newest first, with the current one marked.
func (r *Registry) List() []Info {
	infos := r.byCreation()
	for i, j := 0, len(infos)-1; i < j; i, j = i+1, j-1 {
		infos[i], infos[j] = infos[j], infos[i]
	}
	for i := range infos {
		infos[i].IsCurrent = infos[i].VersionID == r.current
	}
	return infos
}
