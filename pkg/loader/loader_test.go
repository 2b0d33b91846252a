package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sagedocs/sage/pkg/loader"
)

const classesPage = `<html>
<head><title>9. Classes &mdash; Python 3.12.1 documentation</title></head>
<body>
<div class="body" role="main">
<h1>9. Classes<a class="headerlink" href="#classes">&para;</a></h1>
<p>Classes provide a means of bundling data and functionality together.</p>
<pre>class MyClass:
    """A simple example class"""
    i = 12345</pre>
<p>Creating a new class creates a new type of object.</p>
<script>doNotInclude();</script>
</div>
</body>
</html>`

const navPage = `<html><head><title>Index</title></head>
<body><div class="body" role="main"><p>nav only</p></div></body></html>`

func writePage(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoaderRequiresDir(t *testing.T) {
	_, err := loader.NewWithConfig(loader.LoaderConfig{})
	assert.Error(t, err)
}

func TestLoadCleansPages(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "classes.html", classesPage)
	writePage(t, dir, "index.html", navPage)

	l, err := loader.NewWithConfig(loader.LoaderConfig{Dir: dir})
	require.NoError(t, err)

	docs, err := l.Load()
	require.NoError(t, err)
	require.Len(t, docs, 1, "index.html is navigation and must be skipped")

	doc := docs[0]
	assert.Equal(t, "classes.html", doc.Metadata["source"])
	assert.Equal(t, "9. Classes", doc.Metadata["title"])
	assert.Equal(t, "9", doc.Metadata["section"])

	assert.Contains(t, doc.Text, "Classes provide a means of bundling data")
	assert.Contains(t, doc.Text, "```\nclass MyClass:")
	assert.Contains(t, doc.Text, "i = 12345\n```")
	assert.NotContains(t, doc.Text, "doNotInclude")
	assert.NotContains(t, doc.Text, "¶", "header anchors are stripped")
}

func TestLoadEmptyDir(t *testing.T) {
	l, err := loader.NewWithConfig(loader.LoaderConfig{Dir: t.TempDir()})
	require.NoError(t, err)

	_, err = l.Load()
	assert.Error(t, err)
}

func TestLoadSkipsBodylessPages(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "empty.html", `<html><head><title>Empty</title></head><body></body></html>`)
	writePage(t, dir, "real.html", classesPage)

	l, err := loader.NewWithConfig(loader.LoaderConfig{Dir: dir})
	require.NoError(t, err)

	docs, err := l.Load()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "real.html", docs[0].Metadata["source"])
}
