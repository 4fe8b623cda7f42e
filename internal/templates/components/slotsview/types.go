package slotsview

import (
	"fmt"

	"github.com/iwaseano/yoga-reserve/internal/booking"
	"github.com/iwaseano/yoga-reserve/internal/templates/layouts"
)

type BookingPageView struct {
	Base    layouts.BaseView
	Service booking.Service
	// Date is the initially selected date, MinDate the earliest selectable
	// one. Both are YYYY-MM-DD.
	Date     string
	MinDate  string
	SlotsURL string
}

type SlotTableView struct {
	ServiceID int64
	Date      string
	Slots     []SlotRow
	Error     string
}

type SlotRow struct {
	ID         int64
	Time       string
	Available  int
	Capacity   int
	Full       bool
	ConfirmURL string
}

func NewSlotRows(serviceID int64, date string, slots []booking.Slot) []SlotRow {
	rows := make([]SlotRow, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, SlotRow{
			ID:        slot.ID,
			Time:      slot.StartTime,
			Available: slot.Available,
			Capacity:  slot.Capacity,
			Full:      slot.Full(),
			ConfirmURL: fmt.Sprintf(
				"/services/%d/slots/%d/confirm?date=%s&time=%s",
				serviceID, slot.ID, date, slot.StartTime,
			),
		})
	}
	return rows
}
