package entity_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
)

func TestParseAmountE5(t *testing.T) {
	tests := []struct {
		literal string
		want    entity.AmountE5
		wantErr bool
	}{
		{"116000", 116000, false},
		{"-5", -5, false},
		{"1e5", 100000, false},
		{"12.0", 12, false},
		{"9223372036854775807", 9223372036854775807, false},
		{"1.5", 0, true},
		{"1e-2", 0, true},
		{"9223372036854775808", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			got, err := entity.ParseAmountE5(tt.literal)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmountE5_String(t *testing.T) {
	assert.Equal(t, "12.50000", entity.AmountE5FromUnits(12, 50000).String())
	assert.Equal(t, "0.00001", entity.AmountE5(1).String())
	assert.Equal(t, "-1.50000", entity.AmountE5(-150000).String())
	assert.Equal(t, "0.00000", entity.AmountE5(0).String())
}

func TestAmountE5_JSON(t *testing.T) {
	raw, err := json.Marshal(struct {
		Total entity.AmountE5 `json:"total"`
	}{Total: 1160000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":1160000}`, string(raw))

	var v struct {
		Total entity.AmountE5 `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"total":1160000}`), &v))
	assert.Equal(t, entity.AmountE5(1160000), v.Total)

	err = json.Unmarshal([]byte(`{"total":"1160000"}`), &v)
	assert.Error(t, err, "un string no se convierte implícitamente")

	err = json.Unmarshal([]byte(`{"total":0.5}`), &v)
	assert.Error(t, err)
}
