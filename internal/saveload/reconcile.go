package saveload

// Plan is the outcome of reconciling a spawner's live children against a
// target state.
type Plan struct {
	// Destroy lists live keys absent from the target, in live order.
	Destroy []string

	// Create lists target entries absent from the live set, in target order.
	Create []SpawnEntry

	// Keep lists keys present in both, in target order. Kept children are
	// left untouched so references to them stay valid.
	Keep []string
}

// Reconcile computes the minimal change that turns the live key set into the
// target. Duplicate keys in target are collapsed to their first occurrence.
func Reconcile(live []string, target SpawnerState) Plan {
	liveSet := make(map[string]bool, len(live))
	for _, k := range live {
		liveSet[k] = true
	}
	targetSet := make(map[string]bool, len(target))

	var p Plan
	for _, e := range target {
		if targetSet[e.Key] {
			continue
		}
		targetSet[e.Key] = true
		if liveSet[e.Key] {
			p.Keep = append(p.Keep, e.Key)
		} else {
			p.Create = append(p.Create, e)
		}
	}
	for _, k := range live {
		if !targetSet[k] {
			p.Destroy = append(p.Destroy, k)
		}
	}
	return p
}
