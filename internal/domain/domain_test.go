package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_DecodesNumberAndString(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": "42", "c": null}`), &v))

	assert.Equal(t, ID("42"), v.A)
	assert.Equal(t, v.A, v.B)
	assert.Equal(t, ID(""), v.C)
}

func TestID_RejectsObject(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
}

func TestPrice_Decode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Price
		wantErr bool
	}{
		{"number", `19.99`, "19.99", false},
		{"string", `"19.99"`, "19.99", false},
		{"integer", `20`, "20", false},
		{"null", `null`, "", false},
		{"empty string", `""`, "", false},
		{"not numeric", `"free"`, "", true},
		{"negative exponent", `"-1.5e2"`, "-1.5e2", false},
		{"NaN", `"NaN"`, "", true},
		{"Inf", `"Inf"`, "", true},
		{"Infinity", `"-Infinity"`, "", true},
		{"hex float", `"0x1p-2"`, "", true},
		{"leading plus", `"+5"`, "", true},
		{"overflow", `"1e999"`, "", true},
		{"number overflow", `1e999`, "", true},
		{"quoted quotes", `"\"12\""`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Price
			err := json.Unmarshal([]byte(tt.in), &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestPrice_EncodesAsNumber(t *testing.T) {
	out, err := json.Marshal(Product{ID: "1", Price: "12.50"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"price":12.50`)

	out, err = json.Marshal(Product{ID: "1"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"price":null`)
}

func TestPrice_RejectedValuesNeverReachEncoding(t *testing.T) {
	var p Product
	err := json.Unmarshal([]byte(`{"id":1,"price":"NaN"}`), &p)
	require.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"price":" 7.25 "}`), &p))
	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.True(t, json.Valid(out))
	assert.Contains(t, string(out), `"price":7.25`)
}

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name string
		body string
		ids  []ID
	}{
		{"bare array", `[{"id":1,"name":"A"},{"id":"2","name":"B"}]`, []ID{"1", "2"}},
		{"wrapped", `{"data":[{"id":3}],"meta":{"total":1}}`, []ID{"3"}},
		{"null", `null`, []ID{}},
		{"empty", ``, []ID{}},
		{"wrapped null", `{"data":null}`, []ID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeList[Product]([]byte(tt.body))
			require.NoError(t, err)
			require.NotNil(t, got)

			ids := make([]ID, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestDecodeList_Malformed(t *testing.T) {
	_, err := DecodeList[Product]([]byte(`[{"id":`))
	assert.Error(t, err)

	_, err = DecodeList[Product]([]byte(`"nope"`))
	assert.Error(t, err)
}

func TestDecodeObject(t *testing.T) {
	u, err := DecodeObject[UserProfile]([]byte(`{"data":{"id":7,"name":"Ada","email":"ada@example.com"}}`))
	require.NoError(t, err)
	assert.Equal(t, ID("7"), u.ID)
	assert.Equal(t, "Ada", u.Name)

	u, err = DecodeObject[UserProfile]([]byte(`{"id":8,"name":"Grace"}`))
	require.NoError(t, err)
	assert.Equal(t, ID("8"), u.ID)

	_, err = DecodeObject[UserProfile]([]byte(`null`))
	assert.Error(t, err)
}

func TestWishlistItem_DecodesFlatDenormalizedProduct(t *testing.T) {
	body := `[{"product_id":5,"id":5,"name":"Lamp","description":"Warm","image":"lamp.png","price":"30.00"}]`

	items, err := DecodeList[WishlistItem]([]byte(body))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "5", items[0].Key())
	assert.Equal(t, "Lamp", items[0].Name)
	assert.Equal(t, Price("30.00"), items[0].Price)
}

func TestNewWishlistItem(t *testing.T) {
	p := Product{ID: "9", Name: "Mug", Image: "mug.jpg", Price: "8"}
	item := NewWishlistItem(p)

	assert.Equal(t, ID("9"), item.ProductID)
	assert.Equal(t, p, item.Product)
}

func TestSetting_Key(t *testing.T) {
	assert.Equal(t, "currency", Setting{ID: "1", Name: "currency"}.Key())
	assert.Equal(t, "1", Setting{ID: "1"}.Key())
}
