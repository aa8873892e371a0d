package quote

// record drops any redo tail, appends the current state and evicts the
// oldest snapshot once the limit is exceeded.
func (e *Engine) record() {
	e.history = append(e.history[:e.cursor+1], e.capture())
	e.cursor = len(e.history) - 1
	if len(e.history) > e.limit {
		over := len(e.history) - e.limit
		e.history = append([]Snapshot(nil), e.history[over:]...)
		e.cursor -= over
	}
}

// Undo steps back one snapshot. Returns false at the start of history.
func (e *Engine) Undo() bool {
	if !e.CanUndo() {
		return false
	}
	e.cursor--
	e.restore(e.history[e.cursor])
	return true
}

// Redo steps forward one snapshot. Returns false at the end of history.
func (e *Engine) Redo() bool {
	if !e.CanRedo() {
		return false
	}
	e.cursor++
	e.restore(e.history[e.cursor])
	return true
}

// CanUndo reports whether an earlier snapshot exists.
func (e *Engine) CanUndo() bool { return e.cursor > 0 }

// CanRedo reports whether a later snapshot exists.
func (e *Engine) CanRedo() bool { return e.cursor < len(e.history)-1 }

// HistoryLen returns the number of snapshots held, current state included.
func (e *Engine) HistoryLen() int { return len(e.history) }
