package checkpoint

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wacky-klingon/chronos-foundry/chronos-go/dataset"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/forecast"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/partition"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/errors"
	"github.com/wacky-klingon/chronos-foundry/chronos-golib/serialization"
)

const (
	descriptorPrefix  = "checkpoint_"
	latestIndexName   = "latest.json"
	trainingStateName = "training_state.json"
)

// Record is one checkpoint descriptor. Model is attached when loading, if the
// referenced snapshot still exists; it is never serialized.
type Record struct {
	Key       partition.Key  `json:"key"`
	Timestamp time.Time      `json:"timestamp"`
	ModelPath string         `json:"model_path"`
	Stats     Stats          `json:"data_stats"`
	State     *TrainingState `json:"training_state"`
	Name      string         `json:"checkpoint_name"`

	Model forecast.Predictor `json:"-"`
}

type latestIndex struct {
	Descriptor string    `json:"descriptor"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Summary is the derived read-only view of training progress.
type Summary struct {
	Status             string `json:"status"`
	LastProcessed      string `json:"last_processed,omitempty"`
	TotalCheckpoints   int    `json:"total_checkpoints"`
	LastCheckpointTime string `json:"last_checkpoint_time,omitempty"`
}

// Store persists checkpoints under a root directory: descriptors in
// checkpoints/, model snapshots in model_checkpoints/, and the training state
// at a fixed path in the root. A store is owned by exactly one running
// orchestrator; there is no multi-writer protection.
type Store struct {
	root      string
	descDir   string
	modelsDir string
	backend   forecast.Backend
}

// NewStore opens (creating if needed) a checkpoint directory. The backend is
// used to reload model snapshots; it may be nil, in which case loaded records
// carry no model.
func NewStore(root string, backend forecast.Backend) (*Store, error) {
	s := &Store{
		root:      root,
		descDir:   filepath.Join(root, "checkpoints"),
		modelsDir: filepath.Join(root, "model_checkpoints"),
		backend:   backend,
	}
	for _, dir := range []string{s.root, s.descDir, s.modelsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "error creating checkpoint dir %s", dir)
		}
	}
	return s, nil
}

// Root returns the checkpoint directory this store was opened at.
func (s *Store) Root() string {
	return s.root
}

func descriptorName(key partition.Key) string {
	return fmt.Sprintf("%s%04d_%02d.json", descriptorPrefix, key.Year, key.Month)
}

// Save persists a checkpoint for the given partition: it removes the previous
// descriptor, saves the model snapshot, writes the new descriptor and the
// latest-pointer index, then persists the training state. It returns false on
// any failure; a false return means state may be inconsistent and the caller
// must abort the run rather than continue.
func (s *Store) Save(key partition.Key, model forecast.Predictor, stats dataset.Stats, state *TrainingState) bool {
	if err := s.save(key, model, stats, state); err != nil {
		log.Printf("failed to save checkpoint for %s: %v", key, err)
		return false
	}
	log.Printf("checkpoint saved: %s", descriptorName(key))
	return true
}

func (s *Store) save(key partition.Key, model forecast.Predictor, stats dataset.Stats, state *TrainingState) error {
	if model == nil {
		return errors.New("no model to checkpoint")
	}

	s.removeDescriptors()

	// the snapshot must be durable before the descriptor references it
	modelPath := filepath.Join(s.modelsDir, fmt.Sprintf("model_%04d_%02d.json", key.Year, key.Month))
	if err := model.Save(modelPath); err != nil {
		return errors.Wrapf(err, "error saving model snapshot")
	}

	name := descriptorName(key)
	rec := Record{
		Key:       key,
		Timestamp: time.Now(),
		ModelPath: modelPath,
		Stats:     stats,
		State:     state,
		Name:      name,
	}
	if err := serialization.Encode(filepath.Join(s.descDir, name), rec); err != nil {
		return errors.Wrapf(err, "error writing checkpoint descriptor")
	}

	// explicit pointer to the live descriptor, so recovery does not depend
	// on filesystem mtime ordering
	idx := latestIndex{Descriptor: name, UpdatedAt: rec.Timestamp}
	if err := serialization.Encode(filepath.Join(s.descDir, latestIndexName), idx); err != nil {
		return errors.Wrapf(err, "error writing latest index")
	}

	if err := s.SaveTrainingState(state); err != nil {
		return err
	}
	return nil
}

// removeDescriptors deletes any existing checkpoint descriptors. Best-effort:
// the subsequent write replaces the index either way.
func (s *Store) removeDescriptors() {
	for _, name := range s.descriptorNames() {
		if err := os.Remove(filepath.Join(s.descDir, name)); err != nil {
			log.Printf("failed to remove previous checkpoint %s: %v", name, err)
		}
	}
}

func (s *Store) descriptorNames() []string {
	entries, err := ioutil.ReadDir(s.descDir)
	if err != nil {
		log.Printf("failed to list checkpoint dir: %v", err)
		return nil
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, descriptorPrefix) && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	return names
}

func (s *Store) readRecord(name string) *Record {
	var rec Record
	if err := serialization.Decode(filepath.Join(s.descDir, name), &rec); err != nil {
		log.Printf("failed to read checkpoint %s: %v", name, err)
		return nil
	}
	s.attachModel(&rec)
	return &rec
}

// attachModel loads the referenced snapshot if it still exists. A checkpoint
// whose snapshot is gone is returned without a model; callers treat that as a
// fresh start for the model object while trusting the progress bookkeeping.
func (s *Store) attachModel(rec *Record) {
	if s.backend == nil || rec.ModelPath == "" {
		return
	}
	if _, err := os.Stat(rec.ModelPath); err != nil {
		log.Printf("model snapshot missing for checkpoint %s: %s", rec.Name, rec.ModelPath)
		return
	}
	model, err := s.backend.Load(rec.ModelPath)
	if err != nil {
		log.Printf("failed to load model snapshot %s: %v", rec.ModelPath, err)
		return
	}
	rec.Model = model
}

// LoadLast returns the most recent checkpoint record, or nil if none exists.
// The latest-pointer index is consulted first; if it is missing or stale the
// store falls back to a scan ordered by file modification time.
func (s *Store) LoadLast() *Record {
	var idx latestIndex
	if err := serialization.Decode(filepath.Join(s.descDir, latestIndexName), &idx); err == nil && idx.Descriptor != "" {
		if _, err := os.Stat(filepath.Join(s.descDir, idx.Descriptor)); err == nil {
			return s.readRecord(idx.Descriptor)
		}
		log.Printf("latest index points at missing descriptor %s, rescanning", idx.Descriptor)
	}

	names := s.descriptorsByModTime()
	if len(names) == 0 {
		return nil
	}
	if len(names) > 1 {
		// an interrupted writer can leave stragglers behind
		s.Prune()
	}
	return s.readRecord(names[0])
}

// descriptorsByModTime returns descriptor names, most recently modified first.
func (s *Store) descriptorsByModTime() []string {
	entries, err := ioutil.ReadDir(s.descDir)
	if err != nil {
		log.Printf("failed to list checkpoint dir: %v", err)
		return nil
	}

	var infos []os.FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, descriptorPrefix) && strings.HasSuffix(name, ".json") {
			infos = append(infos, entry)
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ModTime().After(infos[j].ModTime())
	})

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names
}

// Load returns the checkpoint record for a specific partition, or nil.
func (s *Store) Load(key partition.Key) *Record {
	name := descriptorName(key)
	if _, err := os.Stat(filepath.Join(s.descDir, name)); err != nil {
		return nil
	}
	return s.readRecord(name)
}

// Prune removes all checkpoint descriptors except the most recently modified
// one. Model snapshots already referenced are left alone.
func (s *Store) Prune() {
	names := s.descriptorsByModTime()
	if len(names) < 2 {
		return
	}
	for _, name := range names[1:] {
		if err := os.Remove(filepath.Join(s.descDir, name)); err != nil {
			log.Printf("failed to remove old checkpoint %s: %v", name, err)
			continue
		}
		log.Printf("removed old checkpoint: %s", name)
	}
}

// Progress returns a read-only summary of training progress.
func (s *Store) Progress() Summary {
	last := s.LoadLast()
	if last == nil {
		return Summary{Status: "not_started"}
	}
	return Summary{
		Status:             "in_progress",
		LastProcessed:      last.Key.String(),
		TotalCheckpoints:   len(s.descriptorNames()),
		LastCheckpointTime: last.Timestamp.Format(time.RFC3339),
	}
}

// SaveTrainingState persists the cumulative training state at its fixed path,
// overwriting the previous copy.
func (s *Store) SaveTrainingState(state *TrainingState) error {
	err := serialization.Encode(filepath.Join(s.root, trainingStateName), state)
	return errors.WrapfOrNil(err, "error saving training state")
}

// LoadTrainingState returns the persisted training state, or nil if there is
// none (or it cannot be read; the failure is logged).
func (s *Store) LoadTrainingState() *TrainingState {
	path := filepath.Join(s.root, trainingStateName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	var state TrainingState
	if err := serialization.Decode(path, &state); err != nil {
		log.Printf("failed to load training state: %v", err)
		return nil
	}
	return &state
}
