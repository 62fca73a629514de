package domain

// Scene is a consistent snapshot of everything drawn on the stage
type Scene struct {
	Stage    Stage           `json:"stage"`
	Entities []*Entity       `json:"entities"`
	Links    []*Link         `json:"links"`
	Tokens   []*Token        `json:"tokens"`
	Legend   []CategoryStyle `json:"legend,omitempty"`
	Version  uint64          `json:"version"`
	Running  bool            `json:"running"`
}
