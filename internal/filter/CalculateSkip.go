package filter

// CalculateSkip resolves the competing pagination conventions. First match
// wins: limit and page, then offset, then skip. A zero knob counts as
// absent, so offset=0 falls through to skip.
func CalculateSkip(limit, page, offset, skip *int) int {
	if truthy(limit) && truthy(page) {
		return *limit * (*page - 1)
	}
	if truthy(offset) {
		return *offset
	}
	if truthy(skip) {
		return *skip
	}
	return 0
}

func truthy(v *int) bool {
	return v != nil && *v != 0
}
