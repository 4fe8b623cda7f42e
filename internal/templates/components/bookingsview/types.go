package bookingsview

import (
	"fmt"

	"github.com/iwaseano/yoga-reserve/internal/booking"
	"github.com/iwaseano/yoga-reserve/internal/templates/layouts"
)

type PageView struct {
	Base layouts.BaseView
}

type ListView struct {
	Bookings []Row
	Error    string
}

type Row struct {
	ID          int64
	ServiceName string
	Date        string
	Time        string
	Cancelled   bool
	CancelURL   string
}

type AdminView struct {
	Base     layouts.BaseView
	Bookings []AdminRow
	Error    string
}

type AdminRow struct {
	ID          int64
	UserName    string
	ServiceName string
	Date        string
	Time        string
	Status      string
}

func NewRows(bookings []booking.BookingDetail) []Row {
	rows := make([]Row, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, Row{
			ID:          b.ID,
			ServiceName: b.ServiceName,
			Date:        b.Date,
			Time:        b.StartTime,
			Cancelled:   b.Status == booking.StatusCancelled,
			CancelURL:   fmt.Sprintf("/bookings/%d/cancel", b.ID),
		})
	}
	return rows
}

func NewAdminRows(bookings []booking.AdminBookingDetail) []AdminRow {
	rows := make([]AdminRow, 0, len(bookings))
	for _, b := range bookings {
		status := "予約済み"
		if b.Status == booking.StatusCancelled {
			status = "キャンセル済み"
		}
		rows = append(rows, AdminRow{
			ID:          b.ID,
			UserName:    b.UserName,
			ServiceName: b.ServiceName,
			Date:        b.Date,
			Time:        b.StartTime,
			Status:      status,
		})
	}
	return rows
}
