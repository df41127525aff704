package sheet_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/patio/internal/customer"
	"github.com/MrJamesThe3rd/patio/internal/importer/sheet"
)

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []customer.CreateParams
		wantErr string
	}{
		{
			name: "cadastro with title rows",
			input: `Clientes do pátio;;;;
;;;;
Nome;CPF/CNPJ;Telefone;Email;Cidade
Ana Souza;123.456.789-00;(19) 99999-0000;ana@example.com;Campinas
;;;;
Ferro Velho Irmãos Ltda;"=""12.345.678/0001-90""";;;Jundiaí
`,
			want: []customer.CreateParams{
				{Name: "Ana Souza", Document: "123.456.789-00", Phone: "(19) 99999-0000", Email: "ana@example.com", City: "Campinas"},
				{Name: "Ferro Velho Irmãos Ltda", Document: "12.345.678/0001-90", City: "Jundiaí"},
			},
		},
		{
			name: "contatos with reordered and missing columns",
			input: `Município;Cliente;Celular
Sumaré;Bruno Lima;19988887777
Hortolândia;Carla Dias
`,
			want: []customer.CreateParams{
				{Name: "Bruno Lima", Phone: "19988887777", City: "Sumaré"},
				{Name: "Carla Dias", City: "Hortolândia"},
			},
		},
		{
			name:    "no header",
			input:   "foo;bar\n1;2\n",
			wantErr: "no customer header found",
		},
		{
			name:    "name column alone is not a header",
			input:   "Nome\nAna\n",
			wantErr: "no customer header found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sheet.NewParser().Parse(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser_Parse_Windows1252(t *testing.T) {
	utf8 := "Nome;Cidade\nJoão Conceição;São José\n"

	latin, err := charmap.Windows1252.NewEncoder().String(utf8)
	require.NoError(t, err)

	got, err := sheet.NewParser().Parse(bytes.NewReader([]byte(latin)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "João Conceição", got[0].Name)
	assert.Equal(t, "São José", got[0].City)
}
