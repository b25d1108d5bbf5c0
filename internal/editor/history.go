package editor

// History holds the committed lines of one session, oldest first, plus a
// browse cursor. cursor == len(entries) means the user is on the live line.
//
// While the user browses past entries, the live line is parked as a draft
// entry at the tail so a Down press past the newest entry can restore it.
// The draft is never a committed command: it is removed again when the user
// returns to the live line and discarded outright on commit.
type History struct {
	entries []string
	cursor  int
	// draft is true while the tail entry is the parked live line.
	draft bool
}

// NewHistory creates an empty history with the cursor on the live line.
func NewHistory() *History {
	return &History{}
}

// Commit appends line as a new entry and moves the cursor back to the live
// position. A pending draft is dropped: committing while browsing commits
// whatever was displayed, not the parked live line.
func (h *History) Commit(line string) {
	if h.draft {
		h.entries = h.entries[:len(h.entries)-1]
		h.draft = false
	}
	h.entries = append(h.entries, line)
	h.cursor = len(h.entries)
}

// Up moves the cursor one entry toward the oldest and returns the entry to
// display. On the first Up of a browsing run the live buffer is parked as the
// draft. Returns false when the cursor is already on the oldest entry.
func (h *History) Up(live string) (string, bool) {
	if h.cursor == 0 {
		return "", false
	}
	if !h.draft && h.cursor == len(h.entries) {
		h.entries = append(h.entries, live)
		h.draft = true
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Down moves the cursor one entry toward the live line and returns the entry
// to display. Stepping past the newest committed entry lands on the draft
// slot: the parked live line is restored and removed from the tail. Returns
// false when already on the live line.
func (h *History) Down() (string, bool) {
	if !h.draft {
		// Off the live line only ever happens mid-browse, and a browse
		// always parks a draft first.
		return "", false
	}
	last := len(h.entries) - 1
	if h.cursor >= last {
		return "", false
	}
	h.cursor++
	if h.cursor == last {
		line := h.entries[last]
		h.entries = h.entries[:last]
		h.draft = false
		return line, true
	}
	return h.entries[h.cursor], true
}

// Len returns the number of committed entries, excluding any draft.
func (h *History) Len() int {
	if h.draft {
		return len(h.entries) - 1
	}
	return len(h.entries)
}

// Browsing reports whether the cursor is off the live line.
func (h *History) Browsing() bool {
	if h.draft {
		return true
	}
	return h.cursor < len(h.entries)
}
