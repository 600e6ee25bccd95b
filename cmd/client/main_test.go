package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/GophIdentity/internal/certgen"
	"github.com/atinyakov/GophIdentity/internal/client"
	"github.com/atinyakov/GophIdentity/internal/models"
)

func TestParseFields(t *testing.T) {
	got, err := parseFields([]string{"first_name=Jane", " last_name =Doe", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, []models.FieldValue{
		{FieldName: "first_name", FieldValue: "Jane"},
		{FieldName: "last_name", FieldValue: "Doe"},
		{FieldName: "note", FieldValue: "a=b"},
	}, got)

	_, err = parseFields([]string{"broken"})
	assert.Error(t, err)
	_, err = parseFields([]string{"=value"})
	assert.Error(t, err)
}

func writeCA(t *testing.T, dir string) string {
	t.Helper()
	ca, err := certgen.NewAuthority("Test CA")
	require.NoError(t, err)
	caPEM, _, err := ca.EncodePEM()
	require.NoError(t, err)
	path := filepath.Join(dir, "ca.crt")
	require.NoError(t, os.WriteFile(path, caPEM, 0600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIdentityRegister_StoresReceiptUsedByTestAccess(t *testing.T) {
	var gotCheckSum string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/identities", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc123","check_sum":"sum-1"}`))
	})
	mux.HandleFunc("/api/identities/test-access", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotCheckSum = body["check_sum"]
		_, _ = w.Write([]byte(`{"access":true}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	dir := t.TempDir()
	store := filepath.Join(dir, "identity.json")
	ls, err := client.OpenStore(store)
	require.NoError(t, err)
	ls.SetToken("tok")
	require.NoError(t, ls.Save())

	common := []string{"--url", ts.URL, "--ca", writeCA(t, dir), "--store", store,
		"--cert", filepath.Join(dir, "none.crt"), "--key", filepath.Join(dir, "none.key")}

	out, err := run(t, append([]string{"identity", "register",
		"--request-id", "abc123", "--email", "jane@example.com",
		"--provider", "Przelewy24", "--field", "first_name=Jane"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"check_sum": "sum-1"`)

	reloaded, err := client.OpenStore(store)
	require.NoError(t, err)
	receipt := reloaded.Get("abc123")
	require.NotNil(t, receipt)
	assert.Equal(t, "jane@example.com", receipt.Email)

	out, err = run(t, append([]string{"identity", "test-access", "abc123"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "sum-1", gotCheckSum)
	assert.Contains(t, out, `"access": true`)
}

func TestIdentityConfirmation_AnonymousStoresIssuedToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "sum-1", r.URL.Query().Get("check_sum"))
		_, _ = w.Write([]byte(`{"requestId":"abc123","fields":[],"session_token":"issued"}`))
	}))
	defer ts.Close()

	dir := t.TempDir()
	store := filepath.Join(dir, "identity.json")

	_, err := run(t, "identity", "confirmation", "abc123", "--check-sum", "sum-1",
		"--url", ts.URL, "--ca", writeCA(t, dir), "--store", store)
	require.NoError(t, err)

	ls, err := client.OpenStore(store)
	require.NoError(t, err)
	assert.Equal(t, "issued", ls.Token)
}
