package transfers

// EstimateFreeTransfers derives the free-transfer allowance for the
// upcoming gameweek from the just-completed one. A manager who made no
// transfers banks one, for a total of two, unless the completed gameweek
// was the season opener (no allowance existed before it).
//
// This looks back a single gameweek. True banking rules track consecutive
// idle gameweeks with a cap of two, so a manager who banked twice in a
// row is undercounted here; carrying a counter across gameweeks would
// need per-manager persisted state.
func EstimateFreeTransfers(priorTransfers, priorEvent int) int {
	if priorTransfers == 0 && priorEvent > 1 {
		return 2
	}
	return 1
}
