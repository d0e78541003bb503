// internal/models/status.go
package models

// StatusID identifies an entry in the seeded status catalog.
type StatusID int

const (
	StatusPending            StatusID = 1
	StatusManagerApproved    StatusID = 2
	StatusAccountantApproved StatusID = 3
	StatusFullyApproved      StatusID = 4
	StatusRejected           StatusID = 5
)

// TerminalCatalogLevel is the catalog level carried by terminal statuses.
const TerminalCatalogLevel = 99

// Status is an immutable catalog entry.
type Status struct {
	ID          StatusID `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Level       int      `json:"level"`
	IsTerminal  bool     `json:"isTerminal"`
	ColorCode   string   `json:"colorCode"`
}

var statusCatalog = []Status{
	{ID: StatusPending, Name: "PENDING", Description: "Awaiting manager approval", Level: 1, ColorCode: "#FFA500"},
	{ID: StatusManagerApproved, Name: "MANAGER_APPROVED", Description: "Approved by manager, awaiting accountant", Level: 2, ColorCode: "#1E90FF"},
	{ID: StatusAccountantApproved, Name: "ACCOUNTANT_APPROVED", Description: "Approved by accountant, awaiting admin", Level: 3, ColorCode: "#8A2BE2"},
	{ID: StatusFullyApproved, Name: "FULLY_APPROVED", Description: "Approved at every level", Level: TerminalCatalogLevel, IsTerminal: true, ColorCode: "#4CAF50"},
	{ID: StatusRejected, Name: "REJECTED", Description: "Rejected by an approver", Level: TerminalCatalogLevel, IsTerminal: true, ColorCode: "#DC143C"},
}

// StatusCatalog returns a copy of the seeded catalog.
func StatusCatalog() []Status {
	out := make([]Status, len(statusCatalog))
	copy(out, statusCatalog)
	return out
}

// LookupStatus returns the catalog entry for id.
func LookupStatus(id StatusID) (Status, bool) {
	for _, s := range statusCatalog {
		if s.ID == id {
			return s, true
		}
	}
	return Status{}, false
}

func (id StatusID) String() string {
	if s, ok := LookupStatus(id); ok {
		return s.Name
	}
	return "UNKNOWN"
}

// IsTerminal reports whether id is FULLY_APPROVED or REJECTED.
func (id StatusID) IsTerminal() bool {
	s, ok := LookupStatus(id)
	return ok && s.IsTerminal
}
