package command

// CompletionRequest asks a completer to complete Words[Index].
type CompletionRequest struct {
	Words   []string
	Index   int
	Context *Context
}

// Word returns the word being completed.
func (r CompletionRequest) Word() string {
	if r.Index < 0 || r.Index >= len(r.Words) {
		return ""
	}
	return r.Words[r.Index]
}

// Completion is a completer's answer.
type Completion struct {
	// Items are the candidates, for display.
	Items []string
	// Completed replaces the word being completed.
	Completed string
	// After is inserted after Completed when there is exactly one item.
	// Empty means " ".
	After string
	// Nodes holds the matched commands when completing command names.
	Nodes []Node
}

// Completer completes one argument. ok is false when nothing matches.
type Completer func(req CompletionRequest) (c *Completion, ok bool)
