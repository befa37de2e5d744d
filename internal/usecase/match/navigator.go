package match

// Neighbors places a cursor inside a ranked id list and returns the ids of
// the previous, current and next postings. Navigation is stateless: the
// caller holds only the current id, and the ranked list is recomputed (or
// served from cache) on every step.
//
// A nil cursor starts at the top. A cursor that is not in the list (the
// posting was retired, or the ranking changed under the caller) yields the
// empty triple; callers restart without a cursor. At either boundary the
// missing neighbor is nil.
func Neighbors(ranked []int64, currentID *int64) (prev, current, next *int64) {
	if len(ranked) == 0 {
		return nil, nil, nil
	}

	idx := 0
	if currentID != nil {
		idx = -1
		for i, id := range ranked {
			if id == *currentID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, nil, nil
		}
	}

	current = &ranked[idx]
	if idx > 0 {
		prev = &ranked[idx-1]
	}
	if idx < len(ranked)-1 {
		next = &ranked[idx+1]
	}
	return prev, current, next
}
