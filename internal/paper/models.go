package paper

import "github.com/mind-engage/mindengage-assembly/internal/assembly"

// Paper is a committed assembly: the requested shape, what the engine had to
// change to meet it, and the chosen items in selection order.
type Paper struct {
	ID        string              `json:"id"`
	OwnerID   string              `json:"owner_id"`
	Title     string              `json:"title"`
	Requested assembly.Config     `json:"requested"`
	Adjusted  *assembly.Config    `json:"adjusted,omitempty"`
	ItemIDs   []string            `json:"item_ids"`
	Fallbacks []assembly.Strategy `json:"fallbacks"`
	Warnings  []string            `json:"warnings"`
	Success   bool                `json:"success"`
	CreatedAt int64               `json:"created_at"`
}

type Request struct {
	Title  string          `json:"title"`
	Config assembly.Config `json:"config"`
	DryRun bool            `json:"dry_run"`
}

// Outcome pairs the engine result with the paper built from it. Paper is nil
// when nothing could be selected.
type Outcome struct {
	Paper  *Paper          `json:"paper,omitempty"`
	Result assembly.Result `json:"result"`
	DryRun bool            `json:"dry_run"`
}
