package entity

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"
)

// E5Scale factor del punto fijo e5: el monto real multiplicado por 100.000.
const E5Scale = 100_000

// AmountE5 monto monetario en punto fijo e5. Nunca se representa como float.
type AmountE5 int64

// ParseAmountE5 interpreta el literal numérico JSON de un monto e5.
// Acepta notación exponencial o decimal solo si el valor es entero exacto (ej: "1e5", "12.0").
// La conversión usa big.Rat: ningún paso intermedio pasa por float64.
func ParseAmountE5(literal string) (AmountE5, error) {
	if n, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return AmountE5(n), nil
	}
	r, ok := new(big.Rat).SetString(literal)
	if !ok {
		return 0, fmt.Errorf("monto e5 %q no es numérico", literal)
	}
	if !r.IsInt() {
		return 0, fmt.Errorf("monto e5 %q debe ser entero", literal)
	}
	if !r.Num().IsInt64() {
		return 0, fmt.Errorf("monto e5 %q fuera de rango", literal)
	}
	return AmountE5(r.Num().Int64()), nil
}

// AmountE5FromUnits construye un monto e5 desde unidades y fracción e5 (ej: 12, 50000 → 12.5).
func AmountE5FromUnits(units, fraction int64) AmountE5 {
	return AmountE5(units*E5Scale + fraction)
}

// Int64 devuelve el valor crudo escalado.
func (a AmountE5) Int64() int64 { return int64(a) }

// String representa el monto en unidades con cinco decimales (ej: 12.50000).
func (a AmountE5) String() string {
	n := int64(a)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%05d", sign, n/E5Scale, n%E5Scale)
}

// MarshalJSON escribe el entero escalado tal cual.
func (a AmountE5) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(a), 10)), nil
}

// UnmarshalJSON solo acepta números JSON; un string como "123" se rechaza.
func (a *AmountE5) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '"' {
		return fmt.Errorf("monto e5 debe ser un número JSON, no %s", string(data))
	}
	v, err := ParseAmountE5(string(data))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
