package erp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
)

func TestParseLines_PreservesOrderAndDropsCurrentLine(t *testing.T) {
	raw := json.RawMessage(`{"3":{"id":"30"},"currentline":{"id":"99"},"1":{"id":"10"},"2":{"id":"20"}}`)

	lines, err := ParseLines(raw)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "3", lines[0].Key)
	assert.Equal(t, "1", lines[1].Key)
	assert.Equal(t, "2", lines[2].Key)
}

func TestParseLines_Shapes(t *testing.T) {
	lines, err := ParseLines(nil)
	assert.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = ParseLines(json.RawMessage(`null`))
	assert.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = ParseLines(json.RawMessage(`[{"id":"1"},{"id":"2"}]`))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "2", lines[1].Key)

	_, err = ParseLines(json.RawMessage(`"addressbook"`))
	assert.Error(t, err)

	_, err = ParseLines(json.RawMessage(`{"1": "oops"}`))
	assert.Error(t, err)
}

func TestExtractAddresses(t *testing.T) {
	specs := DefaultFieldTable().Address
	raw := json.RawMessage(`{
		"currentline": {"id": "999", "addr1_initialvalue": "ignored"},
		"1": {"addressbookaddress_key": "1", "defaultshipping": "T"},
		"2": {"id": "0202", "addr1_initialvalue": "1 Main St", "city_initialvalue": "Miami",
		      "addressee_initialvalue": "Front desk", "isresidential": "T", "zip_initialvalue": "33101"}
	}`)

	got := ExtractAddresses(raw, specs, "Ana Perez")

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Key)
	assert.True(t, got[0].DefaultShipping)
	assert.Equal(t, "Ana Perez", got[0].Addressee)
	assert.Equal(t, "1", got[0].AddressKey)

	assert.Equal(t, int64(202), got[1].Key)
	assert.Equal(t, "1 Main St", got[1].Address)
	assert.Equal(t, "Miami", got[1].City)
	assert.Equal(t, "Front desk", got[1].Addressee)
	assert.Equal(t, "33101", got[1].Zipcode)
	assert.True(t, got[1].IsResidential)
	assert.False(t, got[1].IsDeleted)
}

func TestExtractAddresses_KeyFromLineKey(t *testing.T) {
	got := ExtractAddresses(json.RawMessage(`{"7":{"addr1_initialvalue":"x"},"abc":{"addr1_initialvalue":"y"}}`), DefaultFieldTable().Address, "")

	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].Key)
}

func TestExtractAddresses_Malformed(t *testing.T) {
	got := ExtractAddresses(json.RawMessage(`[1,2,3]`), DefaultFieldTable().Address, "")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = ExtractAddresses(nil, DefaultFieldTable().Address, "")
	assert.Empty(t, got)
}

func TestPrimarySalesRep(t *testing.T) {
	specs := DefaultFieldTable().SalesTeam

	tests := []struct {
		name     string
		raw      string
		employee string
		found    bool
	}{
		{
			name:     "primary sales rep wins",
			raw:      `{"line 1":{"employee":"5","issalesrep":"T"},"line 2":{"employee":"9","issalesrep":"T","isprimary":"T"}}`,
			employee: "9",
			found:    true,
		},
		{
			name:     "first sales rep in input order",
			raw:      `{"line 2":{"employee":"8","issalesrep":"T"},"line 1":{"employee":"5","issalesrep":"T"}}`,
			employee: "8",
			found:    true,
		},
		{
			name:     "line 1 when nobody is flagged",
			raw:      `{"line 2":{"employee":"8"},"line 1":{"employee":"5"}}`,
			employee: "5",
			found:    true,
		},
		{
			name:     "first line when nobody is flagged and no line 1",
			raw:      `{"a":{"employee":"3"},"b":{"employee":"4"}}`,
			employee: "3",
			found:    true,
		},
		{
			name:  "only the sentinel",
			raw:   `{"currentline":{"employee":"1","issalesrep":"T"}}`,
			found: false,
		},
		{
			name:  "malformed",
			raw:   `"nope"`,
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			team := ExtractSalesTeam(json.RawMessage(tt.raw), specs)
			line, ok := PrimarySalesRep(team)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.employee, line.Employee)
		})
	}
}

func TestPrimarySalesRep_Empty(t *testing.T) {
	_, ok := PrimarySalesRep([]models.SalesTeamLine{})
	assert.False(t, ok)
}
