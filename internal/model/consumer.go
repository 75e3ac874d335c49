package model

import "time"

// Address is a normalized postal address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Type    string `json:"type,omitempty"` // current, previous, mailing
}

// IsEmpty reports whether no component of the address is populated.
func (a Address) IsEmpty() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.ZipCode == ""
}

// ConsumerInfo holds the identity of the report subject.
type ConsumerInfo struct {
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	Name          string     `json:"name"`
	SSN           string     `json:"ssn,omitempty"`
	Addresses     []Address  `json:"addresses,omitempty"`
	PhoneNumbers  []string   `json:"phone_numbers,omitempty"`
	ParseFailures []string   `json:"parse_failures,omitempty"`
	Confidence    float64    `json:"confidence"`
}
