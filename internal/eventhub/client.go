package eventhub

import "grievance/backend/internal/models"

// Viewer is the identity a live connection was opened with.
type Viewer struct {
	UserID       string
	Role         models.Role
	DepartmentID string
}

// ViewerOf builds the viewer of an authenticated user.
func ViewerOf(u *models.User) Viewer {
	v := Viewer{UserID: u.ID, Role: u.Role}
	if u.DepartmentID != nil {
		v.DepartmentID = *u.DepartmentID
	}
	return v
}

// Client is one live subscriber. The hub owns the send channel: it calls Close
// exactly once when the client is unregistered or too slow to keep up.
type Client interface {
	GetViewer() Viewer
	GetSendChannel() chan<- models.Event
	Run()
	Close()
}

// Interested reports whether an event concerns the viewer. Admins see every event,
// officers see their own and their department's grievances, citizens see their own.
func Interested(v Viewer, e models.Event) bool {
	switch v.Role {
	case models.RoleAdmin:
		return true
	case models.RoleOfficer:
		if e.OfficerID != "" && e.OfficerID == v.UserID {
			return true
		}
		return v.DepartmentID != "" && e.DepartmentID == v.DepartmentID
	case models.RoleCitizen:
		return e.CitizenID == v.UserID
	}
	return false
}
