package synthesis

// Delta returns the input ids that were not part of the previous run,
// preserving input order. A first run (no previous ids) marks everything new.
func Delta(previous, inputs []string) []string {
	seen := make(map[string]struct{}, len(previous))
	for _, id := range previous {
		seen[id] = struct{}{}
	}

	newIds := make([]string, 0, len(inputs))
	for _, id := range inputs {
		if _, ok := seen[id]; !ok {
			newIds = append(newIds, id)
		}
	}
	return newIds
}
