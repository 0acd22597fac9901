package domain

// TeamRef is a lightweight reference used inside snapshots.
type TeamRef struct {
	ID   int64  `json:"t_id"`
	Name string `json:"name"`
}

// AncestorRef is one step of a team's ancestor chain; Order 0 is the immediate parent.
type AncestorRef struct {
	ID    int64  `json:"t_id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// CorporationSnapshot is a read-only view of a corporation as of a commit.
type CorporationSnapshot struct {
	CommitID int64     `json:"commit_id"`
	ID       int64     `json:"c_id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
	SubTeams []TeamRef `json:"sub_teams"`
}

// TeamSnapshot is a read-only view of a team as of a commit.
type TeamSnapshot struct {
	CommitID      int64         `json:"commit_id"`
	ID            int64         `json:"t_id"`
	Name          string        `json:"name"`
	CorporationID *int64        `json:"corporation"`
	IsActive      bool          `json:"is_active"`
	SubTeams      []TeamRef     `json:"sub_teams"`
	ParentTeams   []AncestorRef `json:"parent_teams"`
}
