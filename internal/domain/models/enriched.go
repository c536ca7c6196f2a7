package models

import "encoding/json"

// EnrichedCustomerLead is a customer lead prepared for display: active
// addresses only, related records resolved and the local clock computed.
// Unresolvable references are nil.
type EnrichedCustomerLead struct {
	*CustomerLead
	SalesRep            *EmployeeRef
	Referrer            *RelatedRef
	Parent              *RelatedRef
	CurrentTime         string
	ResultadoDeContacto string
}

// MarshalJSON renders the lead with the derived attributes alongside.
func (e EnrichedCustomerLead) MarshalJSON() ([]byte, error) {
	doc, err := e.CustomerLead.ToDocument()
	if err != nil {
		return nil, err
	}
	doc["sales_rep"] = e.SalesRep
	doc["referrer"] = e.Referrer
	doc["parent"] = e.Parent
	doc["currentTime"] = e.CurrentTime
	doc["resultado_de_contacto"] = nullable(e.ResultadoDeContacto)
	delete(doc, "refresh_token")
	return json.Marshal(map[string]interface{}(doc))
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
