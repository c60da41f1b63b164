package partition

import "log"

// Remaining returns the subset of all whose month key does not appear in
// processed. Completion is tracked at month granularity: a file added to a
// month that was already processed is skipped. With nothing processed every
// partition is remaining.
func Remaining(all []Ref, processed []Key) []Ref {
	if len(processed) == 0 {
		return all
	}

	done := make(map[Key]bool, len(processed))
	for _, key := range processed {
		done[key] = true
	}

	var remaining []Ref
	for _, ref := range all {
		if !done[ref.Key] {
			remaining = append(remaining, ref)
		}
	}

	log.Printf("%d remaining partition files out of %d total", len(remaining), len(all))
	return remaining
}
