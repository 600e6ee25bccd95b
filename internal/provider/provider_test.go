package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(
		Przelewy24("/img/p24.svg"),
		Descriptor{Name: "BankID", Logo: "/img/bankid.svg"},
	)
	require.NoError(t, err)

	assert.Equal(t, []Descriptor{
		{Name: "Przelewy24", Logo: "/img/p24.svg"},
		{Name: "BankID", Logo: "/img/bankid.svg"},
	}, r.List())

	d, ok := r.Get("BankID")
	require.True(t, ok)
	assert.Equal(t, "/img/bankid.svg", d.Logo)

	_, ok = r.Get("Unknown")
	assert.False(t, ok)
}

func TestNewRegistry_Rejects(t *testing.T) {
	_, err := NewRegistry(Przelewy24("a"), Przelewy24("b"))
	assert.Error(t, err)

	_, err = NewRegistry(Descriptor{Logo: "x"})
	assert.Error(t, err)
}

func TestRegistry_ListIsACopy(t *testing.T) {
	r, err := NewRegistry(Przelewy24("/img/p24.svg"))
	require.NoError(t, err)

	l := r.List()
	l[0].Name = "changed"

	assert.Equal(t, Przelewy24Name, r.List()[0].Name)
}
