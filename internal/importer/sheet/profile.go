package sheet

// Profile describes the header names a customer spreadsheet uses for each field.
// Only the name column is required; the others are read when present.
type Profile struct {
	Name        string
	NameCol     string
	DocumentCol string
	PhoneCol    string
	EmailCol    string
	CityCol     string
}

func (p Profile) optionalCols() []string {
	return []string{p.DocumentCol, p.PhoneCol, p.EmailCol, p.CityCol}
}

// profiles is tried in order against every row until one header matches.
var profiles = []Profile{
	{
		Name:        "cadastro",
		NameCol:     "Nome",
		DocumentCol: "CPF/CNPJ",
		PhoneCol:    "Telefone",
		EmailCol:    "Email",
		CityCol:     "Cidade",
	},
	{
		Name:        "contatos",
		NameCol:     "Cliente",
		DocumentCol: "Documento",
		PhoneCol:    "Celular",
		EmailCol:    "E-mail",
		CityCol:     "Município",
	},
}
