package command

// history is a bounded FIFO of resolved commands with an ID index.
// When full, the oldest entry is evicted regardless of which device it
// belongs to. Not safe for concurrent use; the Dispatcher guards it.
type history struct {
	capacity int
	items    []*Command
	byID     map[string]*Command
}

func newHistory(capacity int) *history {
	if capacity < 1 {
		capacity = 1
	}
	return &history{
		capacity: capacity,
		byID:     make(map[string]*Command),
	}
}

// add appends a resolved command, evicting the oldest entry when full.
func (h *history) add(cmd *Command) {
	if len(h.items) >= h.capacity {
		evicted := h.items[0]
		h.items = h.items[1:]
		delete(h.byID, evicted.ID)
	}
	h.items = append(h.items, cmd)
	h.byID[cmd.ID] = cmd
}

// get returns a resolved command by ID.
func (h *history) get(id string) (*Command, bool) {
	cmd, ok := h.byID[id]
	return cmd, ok
}

// list returns the resolved commands, oldest first.
func (h *history) list() []*Command {
	out := make([]*Command, 0, len(h.items))
	for _, cmd := range h.items {
		out = append(out, cmd.Copy())
	}
	return out
}

func (h *history) len() int {
	return len(h.items)
}
