package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	perrors "github.com/abgdnv/gocatalog/internal/product/errors"
	"github.com/abgdnv/gocatalog/internal/product/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const product1 = `{"title":"producto prueba1","description":"Este es un producto prueba1","price":2001,"img":"Sin imagen","code":"abc12311","stock":251}`
const product2 = `{"title":"producto prueba2","description":"Este es un producto prueba2","price":2002,"img":"Sin imagen","code":"abc12322","stock":252}`

// setup points the CLI at a catalog file in an empty working directory.
func setup(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CATALOG_SVC_CATALOG_PATH", filepath.Join(dir, "archivoproducts.json"))
	t.Setenv("CATALOG_SVC_LOG_LEVEL", "error")
}

// exec runs one CLI invocation and returns its stdout.
func exec(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func Test_Run_Workflow(t *testing.T) {
	setup(t)

	out, err := exec(t, "list")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)

	_, err = exec(t, "add", "-json", product1)
	require.NoError(t, err)
	_, err = exec(t, "add", "-json", product2)
	require.NoError(t, err)
	_, err = exec(t, "add", "-json", product2)
	require.ErrorIs(t, err, perrors.ErrDuplicateCode)

	out, err = exec(t, "list")
	require.NoError(t, err)
	var list []service.ProductDto
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, []int64{1, 2}, []int64{list[0].ID, list[1].ID})

	out, err = exec(t, "update", "-id", "1", "-json", `{"title":"Titulo Actualizado !!","id":23}`)
	require.NoError(t, err)
	var updated service.ProductDto
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	assert.Equal(t, int64(1), updated.ID)
	assert.Equal(t, "Titulo Actualizado !!", updated.Title)
	assert.Equal(t, "abc12311", updated.Code)

	out, err = exec(t, "get", "-code", "abc12322")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": 2`)

	_, err = exec(t, "delete", "-id", "2")
	require.NoError(t, err)
	_, err = exec(t, "get", "-id", "2")
	assert.ErrorIs(t, err, perrors.ErrProductNotFound)
	_, err = exec(t, "delete", "-id", "23")
	assert.ErrorIs(t, err, perrors.ErrProductNotFound)

	out, err = exec(t, "reload")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": 1`)
	assert.NotContains(t, out, `"id": 2`)

	// every invocation is a fresh process: IDs continue above the highest one on disk
	out, err = exec(t, "add", "-json", product2)
	require.NoError(t, err)
	assert.Contains(t, out, `"id": 2`)
}

func Test_Run_FractionalStock(t *testing.T) {
	setup(t)

	_, err := exec(t, "add", "-json", `{"title":"granel","description":"por kilo","price":12.5,"img":"Sin imagen","code":"kg1","stock":2.5}`)
	require.NoError(t, err)

	out, err := exec(t, "get", "-code", "kg1")
	require.NoError(t, err)
	var got service.ProductDto
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2.5, got.Stock)
}

func Test_Run_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		args        []string
		expectError error
	}{
		{name: "no command", args: nil, expectError: errUsage},
		{name: "unknown command", args: []string{"explode"}, expectError: errUsage},
		{name: "get without selector", args: []string{"get"}, expectError: errUsage},
		{name: "add without payload", args: []string{"add"}, expectError: errUsage},
		{name: "add with broken payload", args: []string{"add", "-json", "{"}, expectError: errUsage},
		{name: "add with missing fields", args: []string{"add", "-json", `{"title":"x"}`}, expectError: perrors.ErrValidation},
		{name: "update without id", args: []string{"update", "-json", `{}`}, expectError: errUsage},
		{name: "delete with bad flag", args: []string{"delete", "-nope"}, expectError: errUsage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setup(t)

			_, err := exec(t, tc.args...)

			assert.ErrorIs(t, err, tc.expectError)
		})
	}
}
