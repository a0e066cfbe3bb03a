package internal

// ReconstructPath follows predecessor back-links from end to start and returns
// the indices in start-to-end order. It returns nil when the chain does not
// reach start.
func ReconstructPath(predecessor []int, end, start int) []int {
	path := []int{end}
	current := end
	for current != start {
		previous := predecessor[current]
		// a valid chain never revisits a cell, so it is shorter than the store
		if previous < 0 || len(path) > len(predecessor) {
			return nil
		}
		path = append(path, previous)
		current = previous
	}
	// reverse path
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
