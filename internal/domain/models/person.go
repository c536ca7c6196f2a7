package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
)

// PersonRecord is implemented by Employee and CustomerLead.
type PersonRecord interface {
	Base() *PersonBase
	ToDocument() (ports.Document, error)
}

// PersonBase holds the attributes shared by every person record.
// Attributes carries the remaining ERP attributes, flattened on storage.
type PersonBase struct {
	ID           int64  `json:"id"`
	EntityID     string `json:"entityid"`
	Name         string `json:"name"`
	FirstName    string `json:"firstname"`
	LastName     string `json:"lastname"`
	Email        string `json:"email,omitempty"`
	MobilePhone  string `json:"mobilephone"`
	Stage        Stage  `json:"stage"`
	IsInactive   bool   `json:"isinactive"`
	RefreshToken string `json:"refresh_token,omitempty"`

	Attributes map[string]interface{} `json:"-"`
}

// Base returns the shared attributes.
func (p *PersonBase) Base() *PersonBase {
	return p
}

// FullName joins first and last name.
func (p *PersonBase) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Attribute returns a flattened ERP attribute as a string.
func (p *PersonBase) Attribute(name string) string {
	v, ok := p.Attributes[name]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return formatNumber(val)
	default:
		return fmt.Sprint(val)
	}
}

// Employee is a sales representative. Password and session attributes are
// owned by this service and never come from the ERP.
type Employee struct {
	PersonBase
	QueueID8x8 string `json:"queue_id_8x8"`
	ID8x8      string `json:"id_8x8"`
	EmpStatus  string `json:"emp_status"`

	Password             string `json:"password,omitempty"`
	RecoverPasswordToken string `json:"recover_password_token,omitempty"`
	IsLoggedIn           bool   `json:"is_logged_in,omitempty"`
	MicrosoftGraphID     string `json:"microsoft_graph_id,omitempty"`
	UpdatedEmail         string `json:"updated_email,omitempty"`
}

type employeeFields Employee

// ToDocument flattens the employee for storage.
func (e *Employee) ToDocument() (ports.Document, error) {
	return toDocument((*employeeFields)(e), e.Attributes)
}

// Public strips credentials before the record leaves the service.
func (e Employee) Public() Employee {
	e.Password = ""
	e.RecoverPasswordToken = ""
	e.RefreshToken = ""
	return e
}

// MarshalJSON includes the flattened attributes.
func (e Employee) MarshalJSON() ([]byte, error) {
	doc, err := e.ToDocument()
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]interface{}(doc))
}

// EmployeeFromDocument decodes a stored employee.
func EmployeeFromDocument(doc ports.Document) (*Employee, error) {
	var e Employee
	attrs, err := fromDocument(doc, (*employeeFields)(&e))
	if err != nil {
		return nil, err
	}
	e.Attributes = attrs
	return &e, nil
}

// CustomerLead is a lead or customer synced from the ERP.
type CustomerLead struct {
	PersonBase
	Addresses     []Address `json:"addresses"`
	SalesRepID    string    `json:"salesrep_id"`
	ReferredBy    string    `json:"referred_by"`
	ParentID      *string   `json:"parent_id"`
	IsFinalClient bool      `json:"is_final_client"`
	Hrc           HrcFlags  `json:"hrc"`
	SearchKey     string    `json:"search_key"`
}

type customerLeadFields CustomerLead

// ToDocument flattens the customer lead for storage.
func (c *CustomerLead) ToDocument() (ports.Document, error) {
	return toDocument((*customerLeadFields)(c), c.Attributes)
}

// MarshalJSON includes the flattened attributes.
func (c CustomerLead) MarshalJSON() ([]byte, error) {
	doc, err := c.ToDocument()
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]interface{}(doc))
}

// TimeZoneCode returns the stored ERP time-zone code, if any.
func (c *CustomerLead) TimeZoneCode() string {
	return c.Attribute("time_zone")
}

// HasParent reports whether a parent reference is set.
func (c *CustomerLead) HasParent() bool {
	return c.ParentID != nil && *c.ParentID != ""
}

// CustomerLeadFromDocument decodes a stored customer lead.
func CustomerLeadFromDocument(doc ports.Document) (*CustomerLead, error) {
	var c CustomerLead
	attrs, err := fromDocument(doc, (*customerLeadFields)(&c))
	if err != nil {
		return nil, err
	}
	c.Attributes = attrs
	if c.Hrc == nil {
		c.Hrc = HrcFlags{}
	}
	return &c, nil
}

// EmployeeRef is the sales-rep projection attached to a customer lead.
type EmployeeRef struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// RelatedRef is the projection of a referrer or parent customer lead.
type RelatedRef struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstname"`
	LastName     string `json:"lastname"`
	EntityNumber string `json:"entitynumber"`
}
