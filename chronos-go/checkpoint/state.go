// Package checkpoint persists training progress so a run can resume after
// interruption. A store keeps at most one live checkpoint descriptor at a
// time; the model snapshot it references is written before the descriptor so
// a descriptor never points at a model that was not durably saved.
package checkpoint

import (
	"github.com/wacky-klingon/chronos-foundry/chronos-go/dataset"
	"github.com/wacky-klingon/chronos-foundry/chronos-go/partition"
)

// ProcessedPartition records one partition that has been trained on.
type ProcessedPartition struct {
	Key         partition.Key `json:"key"`
	Location    string        `json:"location"`
	RecordCount int           `json:"record_count"`
}

// TrainingState is the cumulative record of a run: the requested date ranges
// and every partition processed so far, in insertion order. It is persisted
// after every partition and is what resume uses to compute remaining work.
type TrainingState struct {
	StartDate           string               `json:"start_date"`
	EndDate             string               `json:"end_date"`
	ValidationStartDate string               `json:"validation_start_date"`
	ValidationEndDate   string               `json:"validation_end_date"`
	Processed           []ProcessedPartition `json:"processed_partitions"`
	TotalFiles          int                  `json:"total_files"`
}

// ProcessedKeys returns the month keys already processed. Safe on nil state.
func (s *TrainingState) ProcessedKeys() []partition.Key {
	if s == nil {
		return nil
	}
	keys := make([]partition.Key, 0, len(s.Processed))
	for _, p := range s.Processed {
		keys = append(keys, p.Key)
	}
	return keys
}

// Stats aliases the dataset summary stored in each checkpoint record.
type Stats = dataset.Stats
