package entity

// KeyValueField atributo extensible nombre/valor.
// Las colecciones admiten nombres repetidos y conservan el orden de llegada.
type KeyValueField struct {
	Name  string
	Value string
}

// Identity identidad fiscal genérica: nombre completo más campos propios de cada jurisdicción.
type Identity struct {
	FullName             string
	FormOfIdentification []KeyValueField
	ExtraFields          []KeyValueField
}

// PartnerFiscalData identidad fiscal del receptor de la factura.
type PartnerFiscalData struct {
	Identity
}

// CompanyFiscalData identidad fiscal del emisor reportada por el proveedor.
type CompanyFiscalData struct {
	Identity
}

// Lookup devuelve el primer valor con ese nombre en la colección.
func Lookup(fields []KeyValueField, name string) (string, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Email del receptor, si viene en los campos extra.
func (p PartnerFiscalData) Email() string {
	v, _ := Lookup(p.ExtraFields, "email")
	return v
}

// PrimaryIdentification primer documento de identificación declarado (ej: RFC, NIT).
func (i Identity) PrimaryIdentification() KeyValueField {
	if len(i.FormOfIdentification) == 0 {
		return KeyValueField{}
	}
	return i.FormOfIdentification[0]
}
