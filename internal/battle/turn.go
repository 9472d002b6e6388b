package battle

// NewTurn advances the turn counter, refills TU and ages spotting.
func (b *Battle) NewTurn() {
	b.turn++
	for _, u := range b.order {
		if u.IsOut() {
			continue
		}
		u.TU = u.Stats.TU
		if u.TurnsSinceSpotted < MaxTurnsSinceSpotted {
			u.TurnsSinceSpotted++
		}
		if u.Morale < 100 {
			u.Morale = min(100, u.Morale+u.Stats.Bravery/10)
		}
	}
}

// UpdateSpotting resets the spotting age of every unit an opposing unit can see.
func (b *Battle) UpdateSpotting() {
	for _, u := range b.order {
		if u.IsOut() {
			continue
		}
		for _, watcher := range b.order {
			if watcher.IsOut() || !Hostile(watcher.Faction, u.Faction) {
				continue
			}
			if b.CanSee(watcher, u.Pos) {
				u.TurnsSinceSpotted = 0
				break
			}
		}
	}
}

// Alive returns the number of standing units of a faction.
func (b *Battle) Alive(f Faction) int {
	n := 0
	for _, u := range b.order {
		if !u.IsOut() && u.Faction == f {
			n++
		}
	}
	return n
}
