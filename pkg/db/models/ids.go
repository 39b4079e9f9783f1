package models

import "github.com/google/uuid"

// assignID fills an empty primary key so inserts do not depend on a database-side default.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every storefront model in dependency order.
func All() []any {
	return []any{
		&Branch{},
		&Category{},
		&Product{},
		&ProductVariant{},
		&InventoryRow{},
		&DeliveryArea{},
		&Order{},
		&OrderItem{},
	}
}
