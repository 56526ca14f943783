package process

// MergeFields overlays curated annotation fields atop heuristic fields.
// Curated values win on key collision; a curated field is never overwritten
// by a heuristic one. The precedence rule lives here so it can be tested in
// isolation.
func MergeFields(curated, heuristic map[string]string) map[string]string {
	out := make(map[string]string, len(curated)+len(heuristic))
	for k, v := range heuristic {
		if v != "" {
			out[k] = v
		}
	}
	for k, v := range curated {
		if v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
