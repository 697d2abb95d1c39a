package row

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaIndexOf(t *testing.T) {
	schema := Schema{{Name: "id", Type: TypeInteger}, {Name: "body", Type: TypeString}}

	assert.Equal(t, 0, schema.IndexOf("id"))
	assert.Equal(t, 1, schema.IndexOf("body"))
	assert.Equal(t, -1, schema.IndexOf("missing"))
	assert.Equal(t, []string{"id", "body"}, schema.Names())
}

func TestParseType(t *testing.T) {
	typ, err := ParseType(" Binary ")
	require.NoError(t, err)
	assert.Equal(t, TypeBinary, typ)

	_, err = ParseType("blob")
	assert.Error(t, err)
}

func TestFieldString(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	testCases := []struct {
		name  string
		field Field
		value any
		want  string
	}{
		{"string", Field{Name: "f", Type: TypeString}, "x", "x"},
		{"integer", Field{Name: "f", Type: TypeInteger}, int64(42), "42"},
		{"unsigned integer", Field{Name: "f", Type: TypeInteger}, uint8(7), "7"},
		{"number", Field{Name: "f", Type: TypeNumber}, 1.5, "1.5"},
		{"boolean true", Field{Name: "f", Type: TypeBoolean}, true, "Y"},
		{"boolean false", Field{Name: "f", Type: TypeBoolean}, false, "N"},
		{"bignumber", Field{Name: "f", Type: TypeBigNumber}, big.NewInt(12345), "12345"},
		{"bignumber text", Field{Name: "f", Type: TypeBigNumber}, "3.14159", "3.14159"},
		{"date", Field{Name: "f", Type: TypeDate}, ts, "2024/03/01 12:30:00.000"},
		{"date with format", Field{Name: "f", Type: TypeDate, Format: "2006-01-02"}, ts, "2024-03-01"},
		{"timestamp", Field{Name: "f", Type: TypeTimestamp}, ts, "2024-03-01T12:30:00Z"},
		{"date infinity", Field{Name: "f", Type: TypeDate, Format: "2006-01-02"}, PositiveInfinity, "infinity"},
		{"timestamp -infinity", Field{Name: "f", Type: TypeTimestamp}, NegativeInfinity, "-infinity"},
		{"inet", Field{Name: "f", Type: TypeInternetAddress}, netip.MustParseAddr("10.0.0.1"), "10.0.0.1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := tc.field.String(tc.value)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFieldStringNil(t *testing.T) {
	s, ok, err := Field{Name: "f", Type: TypeString}.String(nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s)
}

func TestFieldTypeMismatch(t *testing.T) {
	_, _, err := Field{Name: "f", Type: TypeInteger}.String("not a number")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Contains(t, err.Error(), `"f"`)

	_, err = Field{Name: "b", Type: TypeBinary}.Binary("text")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, _, err = Field{Name: "b", Type: TypeBinary}.String([]byte{0x01})
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestFieldBinary(t *testing.T) {
	b, err := Field{Name: "b", Type: TypeBinary}.Binary([]byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, b)

	b, err = Field{Name: "i", Type: TypeInteger}.Binary(int32(9))
	require.NoError(t, err)
	assert.Equal(t, []byte("9"), b)

	b, err = Field{Name: "b", Type: TypeBinary}.Binary(nil)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestFromMap(t *testing.T) {
	schema := Schema{
		{Name: "id", Type: TypeInteger},
		{Name: "price", Type: TypeNumber},
		{Name: "payload", Type: TypeBinary},
		{Name: "at", Type: TypeTimestamp},
		{Name: "note", Type: TypeString},
	}

	dec := json.NewDecoder(strings.NewReader(`{"id": 7, "price": 2.5, "payload": "AQI=", "at": "2024-03-01T12:30:00Z"}`))
	dec.UseNumber()
	var m map[string]any
	require.NoError(t, dec.Decode(&m))

	r, err := FromMap(schema, m)
	require.NoError(t, err)
	require.Len(t, r, len(schema))
	assert.Equal(t, int64(7), r[0])
	assert.Equal(t, 2.5, r[1])
	assert.True(t, bytes.Equal([]byte{0x01, 0x02}, r[2].([]byte)))
	assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), r[3])
	assert.Nil(t, r[4])

	_, err = FromMap(Schema{{Name: "payload", Type: TypeBinary}}, map[string]any{"payload": 12})
	assert.Error(t, err)
}
