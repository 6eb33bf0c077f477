package model

// DestinationModels lists the destination schema in dependency order.
func DestinationModels() []interface{} {
	return []interface{}{
		&Category{},
		&Brand{},
		&Product{},
		&StoreLocation{},
		&BlogCategory{},
		&BlogPost{},
		&NewsletterSubscription{},
		&User{},
	}
}
