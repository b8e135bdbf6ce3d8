package integration

import (
	"fmt"
	"strings"

	"github.com/erp/connector/internal/domain/integration"
)

// PartnerPayload is the ERP-shaped business partner body.
type PartnerPayload struct {
	CardCode      string                  `json:"CardCode"`
	CardName      string                  `json:"CardName"`
	CardType      string                  `json:"CardType"`
	EmailAddress  string                  `json:"EmailAddress,omitempty"`
	Phone1        string                  `json:"Phone1,omitempty"`
	ContactPerson string                  `json:"ContactPerson,omitempty"`
	BPAddresses   []PartnerAddressPayload `json:"BPAddresses,omitempty"`
}

// PartnerAddressPayload is one address row of a business partner body.
type PartnerAddressPayload struct {
	AddressName string `json:"AddressName"`
	AddressType string `json:"AddressType"`
	Street      string `json:"Street,omitempty"`
	Block       string `json:"Block,omitempty"`
	City        string `json:"City,omitempty"`
	State       string `json:"State,omitempty"`
	ZipCode     string `json:"ZipCode,omitempty"`
	Country     string `json:"Country,omitempty"`
}

// CustomerMapper transforms storefront customer data into ERP business
// partner payloads.
type CustomerMapper struct {
	config Config
}

// NewCustomerMapper creates a new CustomerMapper.
func NewCustomerMapper(config Config) *CustomerMapper {
	return &CustomerMapper{config: config}
}

// PartnerCode derives the deterministic partner code for a storefront
// customer: configured prefix plus the zero-padded local id.
func (m *CustomerMapper) PartnerCode(customerID int64) string {
	return fmt.Sprintf("%s%06d", m.config.PartnerCodePrefix, customerID)
}

// MapPartner builds the business partner payload for a storefront customer.
// The billing address always becomes the bill-to row; the shipping address
// only gets its own ship-to row when it differs from billing.
func (m *CustomerMapper) MapPartner(customerID int64, billing, shipping integration.StoreAddress) *PartnerPayload {
	payload := &PartnerPayload{
		CardCode:      m.PartnerCode(customerID),
		CardName:      billing.DisplayName(),
		CardType:      "cCustomer",
		EmailAddress:  billing.Email,
		Phone1:        billing.Phone,
		ContactPerson: strings.TrimSpace(billing.FirstName + " " + billing.LastName),
	}

	payload.BPAddresses = append(payload.BPAddresses, partnerAddress("Billing", "bo_BillTo", billing))
	if !billing.Equal(shipping) {
		payload.BPAddresses = append(payload.BPAddresses, partnerAddress("Shipping", "bo_ShipTo", shipping))
	}

	return payload
}

func partnerAddress(name, addrType string, a integration.StoreAddress) PartnerAddressPayload {
	return PartnerAddressPayload{
		AddressName: name,
		AddressType: addrType,
		Street:      a.Line1,
		Block:       a.Line2,
		City:        a.City,
		State:       a.State,
		ZipCode:     a.PostalCode,
		Country:     a.Country,
	}
}
