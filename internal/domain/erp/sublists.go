package erp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
)

// CurrentLineKey is the ERP editing sentinel present in every sublist.
const CurrentLineKey = "currentline"

// FirstLineKey is where the ERP puts the first sublist entry.
const FirstLineKey = "line 1"

// Line is one sublist entry with the key it was listed under.
type Line struct {
	Key    string
	Values models.ExternalRecord
}

// ParseLines decodes a sublist, keeping the order entries were listed in
// and dropping the currentline sentinel. Objects keyed by line and plain
// arrays are both accepted. Empty input yields no lines.
func ParseLines(raw json.RawMessage) ([]Line, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	var lines []Line
	switch tok {
	case json.Delim('{'):
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected sublist key %v", keyTok)
			}
			var values models.ExternalRecord
			if err := dec.Decode(&values); err != nil {
				return nil, fmt.Errorf("sublist line %q: %w", key, err)
			}
			if key == CurrentLineKey {
				continue
			}
			lines = append(lines, Line{Key: key, Values: values})
		}
	case json.Delim('['):
		for i := 1; dec.More(); i++ {
			var values models.ExternalRecord
			if err := dec.Decode(&values); err != nil {
				return nil, fmt.Errorf("sublist entry %d: %w", i, err)
			}
			lines = append(lines, Line{Key: strconv.Itoa(i), Values: values})
		}
	default:
		return nil, fmt.Errorf("sublist must be an object or array, got %v", tok)
	}
	return lines, nil
}

// ExtractAddresses converts the addressbook sublist into addresses in input order.
// Malformed input yields an empty list. Empty attention names default to fullName.
func ExtractAddresses(raw json.RawMessage, specs []FieldSpec, fullName string) []models.Address {
	lines, err := ParseLines(raw)
	if err != nil {
		log.WithError(err).Warn("Ignoring malformed addressbook sublist")
		return []models.Address{}
	}

	addresses := make([]models.Address, 0, len(lines))
	for _, line := range lines {
		if line.Values == nil {
			continue
		}
		n := Normalize(line.Values, specs)
		key := addressKey(n, line.Key)
		if key == 0 {
			log.WithField("line", line.Key).Warn("Skipping address line without a usable key")
			continue
		}
		addressee := n.String("addresse")
		if addressee == "" {
			addressee = fullName
		}
		addresses = append(addresses, models.Address{
			Key:             key,
			AddressKey:      n.String("address_key"),
			Address:         n.String("address"),
			Address2:        n.String("address_2"),
			Address3:        n.String("address_3"),
			Addressee:       addressee,
			City:            n.String("city"),
			State:           n.String("state"),
			Country:         n.String("country"),
			Zipcode:         n.String("zipcode"),
			Phone:           n.String("phone"),
			Label:           n.String("label"),
			IsResidential:   n.Bool("isresidential"),
			DefaultBilling:  n.Bool("defaultbilling"),
			DefaultShipping: n.Bool("defaultshipping"),
		})
	}
	return addresses
}

// addressKey prefers the line id, then the addressbook key, then the line key.
func addressKey(n NormalizedRecord, lineKey string) int64 {
	if key := n.Identity("id"); key != 0 {
		return key
	}
	if key := parseIdentity(n.String("address_key")); key != 0 {
		return key
	}
	return parseIdentity(lineKey)
}

// ExtractSalesTeam converts the salesteam sublist in input order.
func ExtractSalesTeam(raw json.RawMessage, specs []FieldSpec) []models.SalesTeamLine {
	lines, err := ParseLines(raw)
	if err != nil {
		log.WithError(err).Warn("Ignoring malformed salesteam sublist")
		return []models.SalesTeamLine{}
	}

	team := make([]models.SalesTeamLine, 0, len(lines))
	for _, line := range lines {
		if line.Values == nil {
			continue
		}
		n := Normalize(line.Values, specs)
		team = append(team, models.SalesTeamLine{
			Key:             line.Key,
			ID:              n.String("id"),
			Employee:        n.String("employee"),
			EmployeeDisplay: n.String("employee_display"),
			Customer:        n.String("customer"),
			Contribution:    n.String("contribution"),
			SalesRole:       n.String("salesrole"),
			IsSalesRep:      n.Bool("issalesrep"),
			IsPrimary:       n.Bool("isprimary"),
		})
	}
	return team
}

// PrimarySalesRep picks the line whose employee is the record's sales rep:
// a primary sales-rep line, else the first sales-rep line, else the line
// at the first position. It reports false for an empty team.
func PrimarySalesRep(team []models.SalesTeamLine) (models.SalesTeamLine, bool) {
	if len(team) == 0 {
		return models.SalesTeamLine{}, false
	}

	var firstRep *models.SalesTeamLine
	for i := range team {
		if !team[i].IsSalesRep {
			continue
		}
		if team[i].IsPrimary {
			return team[i], true
		}
		if firstRep == nil {
			firstRep = &team[i]
		}
	}
	if firstRep != nil {
		return *firstRep, true
	}

	for _, line := range team {
		if line.Key == FirstLineKey {
			return line, true
		}
	}
	return team[0], true
}
