package unfurl

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvanier/unfurl/gotoapi"
)

func TestExpandTemplate(t *testing.T) {
	assert.Equal(t, "https://example.com/join/123", expandTemplate("https://example.com/join/{id}", "123"))
	assert.Equal(t, "https://example.com/join/a%20b", expandTemplate("https://example.com/join/{id}", "a b"))
	assert.Equal(t, "https://example.com/join", expandTemplate("https://example.com/join", "123"))
}

func TestAbsoluteURL(t *testing.T) {
	const base = "https://fallback.example.com/x"

	testCases := map[string]struct {
		raw     string
		want    string
		wantErr bool
	}{
		"absolute":            {raw: "https://a.example.com/b", want: "https://a.example.com/b"},
		"relative":            {raw: "/img/logo.png", want: "https://fallback.example.com/img/logo.png"},
		"normalized":          {raw: "HTTPS://A.Example.COM:443/b/../c", want: "https://a.example.com/c"},
		"surrounding spaces":  {raw: "  https://a.example.com/b  ", want: "https://a.example.com/b"},
		"script scheme":       {raw: "javascript:alert(1)", wantErr: true},
		"other scheme":        {raw: "ftp://a.example.com/b", wantErr: true},
		"unparseable":         {raw: "https://a b.example.com/%zz", wantErr: true},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := absoluteURL(tc.raw, base)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("attribute breaking characters", func(t *testing.T) {
		got, err := absoluteURL(`https://a.example.com/it's"><script>`, base)
		require.NoError(t, err)
		assert.NotContains(t, got, `'`)
		assert.NotContains(t, got, `"`)
		assert.NotContains(t, got, `<`)
		assert.NotContains(t, got, `>`)
	})
}

func TestRedirectURL(t *testing.T) {
	const fallback = "https://fallback.example.com/x"

	got, err := redirectURL(fallback, "", "javascript:alert(1)", "https://a.example.com/b", "https://c.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.com/b", got)

	got, err = redirectURL(fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	_, err = redirectURL("not a url")
	assert.Error(t, err)
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&lt;a href=&#34;x&#34;&gt;&#39;&amp;", escapeHTML(`<a href="x">'&`))
	assert.Equal(t, "plain", escapeHTML("plain"))
}

func TestUpstreamError(t *testing.T) {
	t.Run("status errors keep their status", func(t *testing.T) {
		se := &gotoapi.StatusError{Method: "GET", URL: "/webinars/x", StatusCode: http.StatusForbidden, StatusMessage: "403 Forbidden"}
		e := upstreamError(se)
		assert.Equal(t, KindUpstream, e.Kind)
		assert.Equal(t, http.StatusForbidden, e.StatusCode)
		assert.Equal(t, "goto api: GET /webinars/x: 403 Forbidden", e.Message)
		assert.True(t, errors.Is(e, se))
	})

	t.Run("other errors are internal", func(t *testing.T) {
		e := upstreamError(errors.New("boom"))
		assert.Equal(t, KindInternal, e.Kind)
		assert.Equal(t, http.StatusInternalServerError, e.StatusCode)
		assert.Equal(t, "boom", e.Message)
	})

	t.Run("existing errors pass through", func(t *testing.T) {
		orig := notFoundError("/nope")
		assert.Same(t, orig, upstreamError(orig))
		assert.Equal(t, "not_found", orig.Kind.String())
	})
}
