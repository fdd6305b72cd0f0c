package types

// PromptFile is a prompt source discovered in the prompts directory.
type PromptFile struct {
	// Display name (filename without the .prompts extension).
	// example: landscapes
	Name string `json:"name" example:"landscapes"`
	// Absolute path to the prompt file on disk.
	// example: /home/user/prompts/landscapes.prompts
	Path string `json:"path" example:"/home/user/prompts/landscapes.prompts"`
}

// PromptSourceInfo describes the active prompt source and its progress.
type PromptSourceInfo struct {
	// Absolute path of the active prompt file; empty when none is loaded.
	Path string `json:"path"`
	// Display name of the active prompt file.
	// example: landscapes
	Name string `json:"name,omitempty" example:"landscapes"`
	// Directory the prompt file was loaded from.
	Dir string `json:"dir,omitempty"`
	// Number of prompt combinations produced by the file.
	// example: 100
	Total int `json:"total" example:"100"`
	// Combinations completed since the file was loaded.
	// example: 6
	Completed int `json:"completed" example:"6"`
	// Combinations not yet handed to a worker in the current pass.
	// example: 92
	Pending int `json:"pending" example:"92"`
	// Full passes over the file dispatched so far.
	// example: 1
	LoopsDone int `json:"loops_done" example:"1"`
	// Whether the file restarts from the top once exhausted.
	Repeat bool `json:"repeat"`
}

// Loaded reports whether a prompt source is active.
func (p PromptSourceInfo) Loaded() bool { return p.Path != "" }
