package servicesview

import (
	"fmt"

	"github.com/iwaseano/yoga-reserve/internal/booking"
	"github.com/iwaseano/yoga-reserve/internal/templates/layouts"
)

type CatalogView struct {
	Base     layouts.BaseView
	Services []ServiceCard
	Error    string
}

type ServiceCard struct {
	ID          int64
	Name        string
	Description string
	Duration    string
	BookingURL  string
}

func NewServiceCards(services []booking.Service) []ServiceCard {
	cards := make([]ServiceCard, 0, len(services))
	for _, svc := range services {
		cards = append(cards, ServiceCard{
			ID:          svc.ID,
			Name:        svc.Name,
			Description: svc.Description,
			Duration:    fmt.Sprintf("%d分", svc.Duration),
			BookingURL:  fmt.Sprintf("/services/%d/booking", svc.ID),
		})
	}
	return cards
}
