package models

import "sort"

// Address is an addressbook entry owned by a customer lead.
// Key is the ERP line identity; entries are only ever soft-deleted.
type Address struct {
	Key             int64  `json:"key"`
	AddressKey      string `json:"address_key,omitempty"`
	Address         string `json:"address"`
	Address2        string `json:"address_2"`
	Address3        string `json:"address_3"`
	Addressee       string `json:"addresse"`
	City            string `json:"city"`
	State           string `json:"state"`
	Country         string `json:"country"`
	Zipcode         string `json:"zipcode"`
	Phone           string `json:"phone"`
	Label           string `json:"label"`
	IsResidential   bool   `json:"isresidential"`
	DefaultBilling  bool   `json:"defaultbilling"`
	DefaultShipping bool   `json:"defaultshipping"`
	IsDeleted       bool   `json:"is_deleted"`
}

// ActiveAddresses drops soft-deleted entries and moves default-shipping
// entries to the front, keeping relative order otherwise.
func ActiveAddresses(addresses []Address) []Address {
	active := make([]Address, 0, len(addresses))
	for _, a := range addresses {
		if !a.IsDeleted {
			active = append(active, a)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].DefaultShipping && !active[j].DefaultShipping
	})
	return active
}

// FindAddress returns the index of the entry with the key, or -1.
func FindAddress(addresses []Address, key int64) int {
	for i, a := range addresses {
		if a.Key == key {
			return i
		}
	}
	return -1
}
