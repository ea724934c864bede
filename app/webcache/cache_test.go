package webcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutGet(t *testing.T) {
	c, err := New(t.TempDir(), "static-v1")
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	_, ok, err := c.Get("/index.html")
	require.NoError(t, err)
	assert.False(t, ok)

	want := Entry{Status: 200, ContentType: "text/html", Body: []byte("<html></html>")}
	require.NoError(t, c.Put("/index.html", want))

	got, ok, err := c.Get("/index.html")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCache_Activate_DropsStaleVersions(t *testing.T) {
	dir := t.TempDir()

	old, err := New(dir, "static-v1")
	require.NoError(t, err)
	require.NoError(t, old.Put("/index.html", Entry{Status: 200, Body: []byte("old")}))
	require.NoError(t, old.Close())

	c, err := New(dir, "static-v2")
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	keys, err := c.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"static-v1", "static-v2"}, keys)

	require.NoError(t, c.Activate())

	keys, err = c.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"static-v2"}, keys)

	// entries of the dropped version are gone for good
	_, ok, err := c.Get("/index.html")
	require.NoError(t, err)
	assert.False(t, ok)
}
