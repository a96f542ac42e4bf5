package access

// Visibility is the access tier a resource owner grants to everyone else.
type Visibility string

const (
	Private    Visibility = "private"
	GlobalView Visibility = "global_view"
	GlobalEdit Visibility = "global_edit"
)

// Valid reports whether v is one of the three known visibility values.
func (v Visibility) Valid() bool {
	switch v {
	case Private, GlobalView, GlobalEdit:
		return true
	}
	return false
}

// Mode is the kind of access being requested.
type Mode int

const (
	View Mode = iota
	Edit
)

// Resource is any owned record carrying a visibility flag. Topics and
// collections both satisfy it.
type Resource interface {
	OwnerID() uint
	Access() Visibility
}

// Can reports whether userID may act on res in the given mode. The owner can
// always do everything; global_edit grants edit (and therefore view) to
// anyone; global_view grants view only.
func Can(res Resource, userID uint, mode Mode) bool {
	if res.OwnerID() == userID {
		return true
	}
	switch mode {
	case Edit:
		return res.Access() == GlobalEdit
	case View:
		return res.Access() == GlobalEdit || res.Access() == GlobalView
	}
	return false
}
