package domain

// Room represents a bookable room. CheckIn and CheckOut are
// times-of-day in "15:04" form; MaxCapacity bounds how many
// reservations may overlap on one date range.
type Room struct {
	ID          string
	Name        string
	MaxCapacity int
	CheckIn     string
	CheckOut    string
}
