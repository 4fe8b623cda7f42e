package layouts

// Page identifies the active top navigation tab.
type Page string

const (
	PageLanding    Page = "landing"
	PageServices   Page = "services"
	PageBooking    Page = "booking"
	PageMyBookings Page = "my_bookings"
	PageAdmin      Page = "admin"
)

// BaseView carries the state every page needs: who is logged in and which
// tab is active.
type BaseView struct {
	Title      string
	ActivePage Page
	LoggedIn   bool
	UserName   string
}
