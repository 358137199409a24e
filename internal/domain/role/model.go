package role

// DefaultID is assigned when a provider role label matches nothing.
const DefaultID int64 = 1

type Role struct {
	ID          int64
	VideoGameID int64
	Name        string
	ShortName   string
}
