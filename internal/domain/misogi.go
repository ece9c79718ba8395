package domain

// Misogi is a user-defined epic personal challenge.
type Misogi struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Deadline    string        `json:"deadline,omitempty"`
	Resources   []Resource    `json:"resources,omitempty"`
	Roadmap     []RoadmapStep `json:"roadmap,omitempty"`
	Logbook     []string      `json:"logbook,omitempty"`
}

// Resource is a book, link or tool attached to a Misogi.
type Resource struct {
	ID       string `json:"id"`
	UserID   string `json:"-"`
	MisogiID string `json:"misogi_id"`
	Title    string `json:"title"`
	URL      string `json:"url,omitempty"`
	Kind     string `json:"kind,omitempty"`
}

// RoadmapStep is one milestone on a Misogi roadmap.
type RoadmapStep struct {
	ID          string `json:"id"`
	UserID      string `json:"-"`
	MisogiID    string `json:"misogi_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

// Pillar is a life domain (body, finance, mind...) with its beliefs and habits.
type Pillar struct {
	Name       string   `json:"name"`
	Beliefs    []string `json:"beliefs,omitempty"`
	Habits     []string `json:"habits,omitempty"`
	Milestones []string `json:"milestones,omitempty"`
}
