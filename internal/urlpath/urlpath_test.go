package urlpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"apple-touch-icon.png", "apple-touch-icon.png"},
		{"/apple-touch-icon.png", "apple-touch-icon.png"},
		{"../assets/images/apple-touch-icon.png", "apple-touch-icon.png"},
		{"../../global/css/bootstrap.min.css?v2.2.0", "bootstrap.min.css"},
		{"../assets/js/sections/skintools.min.js", "skintools.min.js"},
		{"http://abc.com/assets/images/logo.png", "logo.png"},
		{"logo.png?x=1", "logo.png"},
		{"page.html#top", "page.html#top"},
		{"my%20file.js", "my%20file.js"},
		{"http://abc.com/dir/", ""},
		{"a?b/c", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Filename(tt.in), "Filename(%q)", tt.in)
	}
}

func TestPathname(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://abc.com/assets/images/apple-touch-icon.png", "/assets/images"},
		{"http://abc.com/global/css/bootstrap.min.css?v2.2.0", "/global/css"},
		{"http://abc.com/assets/js/sections/skintools", "/assets/js/sections"},
		{"http://abc.com/index.html", ""},
		{"http://abc.com/remark/topbar/", "/remark/topbar"},
		{"http://abc.com", ""},
		{"noslash", ""},
		{"http://abc.com/%zz/x", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Pathname(tt.in), "Pathname(%q)", tt.in)
	}
}

func TestRootContext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://abc.com/home", "http://abc.com/home/"},
		{"http://abc.com/home/", "http://abc.com/home/"},
		{"http://abc.com/home/something.htm", "http://abc.com/home/"},
		{"http://abc.com/home/something.html", "http://abc.com/home/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RootContext(tt.in), "RootContext(%q)", tt.in)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base string
		ref  string
		want string
	}{
		{"http://abc.com/home", "b.html", "http://abc.com/home/b.html"},
		{"http://abc.com/home", "a/b.html", "http://abc.com/home/a/b.html"},
		{"http://abc.com/home/", "a/b.html", "http://abc.com/home/a/b.html"},
		{"http://abc.com/home", "../a/b.html", "http://abc.com/a/b.html"},
		{"http://abc.com/home/", "../a/b.html", "http://abc.com/a/b.html"},
		{"http://abc.com/ho/me", "../../a/b.html", "http://abc.com/a/b.html"},
		{"http://abc.com/ho/me/", "../../a/b.html", "http://abc.com/a/b.html"},
		{"http://abc.com/home/", "./css/site.css?v=3", "http://abc.com/home/css/site.css"},
		{"http://abc.com/home/", "/static/app.js", "http://abc.com/static/app.js"},
		{"https://abc.com/home/", "//cdn.abc.com/x.js", "https://cdn.abc.com/x.js"},
		{"http://abc.com/home/", "http://other.com/x.js", "http://other.com/x.js"},
		{"http://abc.com/home/", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Resolve(tt.base, tt.ref), "Resolve(%q, %q)", tt.base, tt.ref)
	}
}

func TestResolveFloorsAtOrigin(t *testing.T) {
	assert.Equal(t, "http://abc.com/x.js", Resolve("http://abc.com/a/", "../../../x.js"))
	assert.Equal(t, "http://abc.com/b/x.js", Resolve("http://abc.com/", "../b/x.js"))
}

func TestResolveStrict(t *testing.T) {
	got, err := ResolveStrict("http://abc.com/ho/me/", "../../a/b.html")
	require.NoError(t, err)
	assert.Equal(t, "http://abc.com/a/b.html", got)

	_, err = ResolveStrict("http://abc.com/a/", "../../x.js")
	assert.ErrorIs(t, err, ErrAboveRoot)
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"http://example.com/#section":   "http://example.com/",
		"https://example.com":           "https://example.com",
		"  http://test.com/path ":       "http://test.com/path",
		"http://test.com/a.html#x?y=1":  "http://test.com/a.html",
		"http://test.com/a.html?y=1#x":  "http://test.com/a.html?y=1",
		"":                              "",
		"#only":                         "",
		"http://test.com/\x7f/bad.html": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestOrigin(t *testing.T) {
	assert.Equal(t, "http://abc.com/", Origin("http://abc.com/ho/me"))
	assert.Equal(t, "http://abc.com/", Origin("http://abc.com"))
	assert.Equal(t, "https://abc.com:8443/", Origin("https://abc.com:8443?q=1"))
	assert.Equal(t, "", Origin("relative/path"))
}

func TestHasScheme(t *testing.T) {
	assert.True(t, HasScheme("http://abc.com"))
	assert.True(t, HasScheme("mailto:me@abc.com"))
	assert.True(t, HasScheme("javascript:void(0)"))
	assert.False(t, HasScheme("../a.js"))
	assert.False(t, HasScheme("a/b:c.js"))
	assert.False(t, HasScheme("1http://x"))
	assert.False(t, HasScheme(":x"))
}
