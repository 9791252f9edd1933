package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "version": 1,
  "products": [
    {"name": "Widget", "price": 10.5, "sku": "W-1"},
    {"name": "Gadget", "price": null}
  ],
  "orders": [
    {"customerName": "Ana", "products": [0], "closed": true},
    {"customerName": "Bia"}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeGzipFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return path
}

func TestDecode(t *testing.T) {
	data, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	require.Len(t, data.Products, 2)
	assert.Equal(t, "Widget", data.Products[0].Name)
	require.NotNil(t, data.Products[0].Price)
	assert.InDelta(t, 10.5, *data.Products[0].Price, 1e-9)
	assert.Nil(t, data.Products[1].Price)

	assert.Equal(t, []Order{
		{CustomerName: "Ana", Products: []int{0}, Closed: true},
		{CustomerName: "Bia"},
	}, data.Orders)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not an object", input: `[]`},
		{name: "name is a number", input: `{"products":[{"name":1}]}`},
		{name: "price is a string", input: `{"products":[{"name":"A","price":"1"}]}`},
		{name: "product index is a string", input: `{"orders":[{"customerName":"Ana","products":["0"]}]}`},
		{name: "truncated", input: `{"products":[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
		})
	}
}

func TestReadFile(t *testing.T) {
	plain, err := ReadFile(writeFile(t, "seed.json", sample))
	require.NoError(t, err)

	compressed, err := ReadFile(writeGzipFile(t, "seed.json.gz", sample))
	require.NoError(t, err)

	assert.Equal(t, plain, compressed)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = ReadFile(writeFile(t, "broken.json.gz", sample))
	require.Error(t, err)
}

func TestReadFiles(t *testing.T) {
	ctx := t.Context()
	a := writeFile(t, "a.json", `{"orders":[{"customerName":"A"}]}`)
	b := writeGzipFile(t, "b.json.gz", `{"orders":[{"customerName":"B"}]}`)
	c := writeFile(t, "c.json", `{"orders":[{"customerName":"C"}]}`)

	sets, err := ReadFiles(ctx, []string{c, a, b})
	require.NoError(t, err)
	require.Len(t, sets, 3)
	for i, want := range []string{"C", "A", "B"} {
		assert.Equal(t, want, sets[i].Orders[0].CustomerName)
	}

	_, err = ReadFiles(ctx, []string{a, filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)
}
