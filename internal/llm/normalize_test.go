package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFields(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want InvoiceFields
	}{
		{
			name: "all fields present",
			doc:  `{"sender":"Acme Corp","invoiceDate":"2024-01-30","amount":100.5}`,
			want: InvoiceFields{Sender: "Acme Corp", InvoiceDate: "2024-01-30", Amount: 100.5},
		},
		{
			name: "nulls collapse to absence",
			doc:  `{"sender":null,"invoiceDate":null,"amount":null}`,
			want: InvoiceFields{},
		},
		{
			name: "missing keys collapse to absence",
			doc:  `{}`,
			want: InvoiceFields{},
		},
		{
			name: "loose date format is discarded",
			doc:  `{"sender":"Acme","invoiceDate":"Jan 30, 2024","amount":10}`,
			want: InvoiceFields{Sender: "Acme", Amount: 10},
		},
		{
			name: "date with trailing text is discarded",
			doc:  `{"sender":"Acme","invoiceDate":"2024-01-30T00:00:00Z","amount":10}`,
			want: InvoiceFields{Sender: "Acme", Amount: 10},
		},
		{
			name: "sender is trimmed",
			doc:  `{"sender":"  Acme  ","invoiceDate":"2024-01-30","amount":10}`,
			want: InvoiceFields{Sender: "Acme", InvoiceDate: "2024-01-30", Amount: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeFields([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeFieldsRejectsMalformedJSON(t *testing.T) {
	_, err := NormalizeFields([]byte(`not json`))
	require.Error(t, err)
}

func TestValidateJSONAgainstSchema(t *testing.T) {
	schema := BuildInvoiceJSONSchema()

	require.NoError(t, ValidateJSONAgainstSchema(schema, []byte(`{"sender":"A","invoiceDate":"2024-01-30","amount":1}`)))
	require.NoError(t, ValidateJSONAgainstSchema(schema, []byte(`{"sender":null,"invoiceDate":null,"amount":null}`)))

	// Not a JSON object at all.
	require.Error(t, ValidateJSONAgainstSchema(schema, []byte(`"just a string"`)))
	require.Error(t, ValidateJSONAgainstSchema(schema, []byte(`[1,2,3]`)))
	// Wrong field type.
	require.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{"amount":"one hundred"}`)))
}
