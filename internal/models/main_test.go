package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldDictionary_Lookups(t *testing.T) {
	d := NewFieldDictionary([]Field{
		{ID: 1, Name: "first_name", Kind: FieldKindText},
		{ID: 2, Name: "date_of_birth", Kind: FieldKindExact},
	})

	f, ok := d.Lookup("first_name")
	require.True(t, ok)
	assert.Equal(t, int64(1), f.ID)

	f, ok = d.ByID(2)
	require.True(t, ok)
	assert.Equal(t, "date_of_birth", f.Name)

	_, ok = d.Lookup("middle_name")
	assert.False(t, ok)

	assert.Equal(t, map[string]int64{"first_name": 1, "date_of_birth": 2}, d.IDs())
	assert.Equal(t, 2, d.Len())
}

func TestFieldDictionary_DuplicateNameKeepsFirstPosition(t *testing.T) {
	d := NewFieldDictionary([]Field{
		{ID: 1, Name: "email", Kind: FieldKindExact},
		{ID: 2, Name: "city", Kind: FieldKindText},
		{ID: 3, Name: "email", Kind: FieldKindText},
	})

	fields := d.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "email", fields[0].Name)
	assert.Equal(t, int64(3), fields[0].ID)
}

func TestFieldDictionary_NilIsEmpty(t *testing.T) {
	var d *FieldDictionary

	_, ok := d.Lookup("first_name")
	assert.False(t, ok)
	assert.Empty(t, d.IDs())
	assert.Zero(t, d.Len())
}

func TestConfirmedValues_ScanAndValue(t *testing.T) {
	in := ConfirmedValues{"first_name": "Jane"}
	raw, err := in.Value()
	require.NoError(t, err)

	var out ConfirmedValues
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, in, out)

	require.NoError(t, out.Scan(`{"last_name":"Doe"}`))
	assert.Equal(t, ConfirmedValues{"last_name": "Doe"}, out)

	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out)

	assert.Error(t, out.Scan(42))
}
