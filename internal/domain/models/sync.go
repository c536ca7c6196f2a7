package models

import (
	"encoding/json"
	"strconv"
)

// ExternalRecord is the flat ERP attribute map as received.
type ExternalRecord map[string]interface{}

// Raw returns the attribute as a string. Numbers and booleans are
// stringified; null and missing attributes report false.
func (r ExternalRecord) Raw(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		if val {
			return "T", true
		}
		return "F", true
	case json.Number:
		return val.String(), true
	}
	return "", false
}

// SyncSublists keeps the sublists raw so malformed shapes degrade to empty
// lists instead of failing the whole payload.
type SyncSublists struct {
	AddressBook json.RawMessage `json:"addressbook"`
	SalesTeam   json.RawMessage `json:"salesteam"`
}

// SyncRequest is the ERP push envelope.
type SyncRequest struct {
	ID       string         `json:"id,omitempty"`
	Type     string         `json:"type"`
	Fields   ExternalRecord `json:"fields"`
	Sublists SyncSublists   `json:"sublists"`
}

// SyncResult acknowledges a sync. Failures are reported with Success false.
type SyncResult struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id,omitempty"`
	Created bool   `json:"created,omitempty"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SalesTeamLine is one entry of the ERP sales team sublist.
type SalesTeamLine struct {
	Key             string `json:"-"`
	ID              string `json:"id"`
	Employee        string `json:"employee"`
	EmployeeDisplay string `json:"employee_display"`
	Customer        string `json:"customer"`
	Contribution    string `json:"contribution"`
	SalesRole       string `json:"salesrole"`
	IsSalesRep      bool   `json:"issalesrep"`
	IsPrimary       bool   `json:"isprimary"`
}
