package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Net Money `json:"net"`
	}{Net: 47250})
	require.NoError(t, err)
	assert.JSONEq(t, `{"net":"472.50"}`, string(out))

	var in struct {
		Amount Money `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"800.00"}`), &in))
	assert.Equal(t, Money(80000), in.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount":12.5}`), &in))
	assert.Equal(t, Money(1250), in.Amount)
}

func TestMoneyRejectsSubCentPrecision(t *testing.T) {
	_, err := ParseMoney("10.005")
	require.Error(t, err)

	_, err = ParseMoney("abc")
	require.Error(t, err)

	m, err := ParseMoney("-3.10")
	require.NoError(t, err)
	assert.Equal(t, int64(-310), m.Cents())
}
