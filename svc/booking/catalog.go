package booking

import (
	"slices"
	"strings"
)

// Service is an entry of the salon menu.
type Service struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DurationMins int    `json:"duration_mins"`
	Price        int    `json:"price"`
}

// DefaultServices is the menu used when none is configured. Prices are in rupees.
var DefaultServices = []Service{
	{ID: "nail_ext", Name: "Nail Extension", DurationMins: 90, Price: 1500},
	{ID: "nail_art", Name: "Nail Art", DurationMins: 60, Price: 800},
	{ID: "lash_ext", Name: "Lash Extension", DurationMins: 60, Price: 1200},
}

// Catalog is a read-only list of services. Intake does not restrict
// service names to it.
type Catalog struct {
	services []Service
}

// NewCatalog copies services; an empty list selects DefaultServices.
func NewCatalog(services ...Service) *Catalog {
	if len(services) == 0 {
		services = DefaultServices
	}
	return &Catalog{services: slices.Clone(services)}
}

// Services returns a copy of the menu.
func (c *Catalog) Services() []Service {
	return slices.Clone(c.services)
}

// Lookup finds a service by id or case-insensitive name.
func (c *Catalog) Lookup(key string) (Service, bool) {
	key = strings.TrimSpace(key)
	for _, s := range c.services {
		if s.ID == key || strings.EqualFold(s.Name, key) {
			return s, true
		}
	}
	return Service{}, false
}
