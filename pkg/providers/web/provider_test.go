package web

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/omnibox/pkg/core"
)

func TestSearch(t *testing.T) {
	p, err := (&Provider{}).Factory("ddg", &Config{Engine: "DuckDuckGo", URLTemplate: "https://duckduckgo.com/?q=%s"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ddg", p.Descriptor().ID)
	assert.Equal(t, "web", p.Descriptor().Type)

	results, err := p.Search(context.Background(), "  go generics ")
	require.NoError(t, err)
	require.Len(t, results, 1)
	web, ok := results[0].(core.WebResult)
	require.True(t, ok)
	assert.Equal(t, "go generics", web.Query)
	assert.Equal(t, "https://duckduckgo.com/?q=go+generics", web.URL)
	assert.Equal(t, "DuckDuckGo", web.Engine)
}

func TestSearchURLFirst(t *testing.T) {
	p, err := (&Provider{}).Factory("web", nil, nil)
	require.NoError(t, err)

	results, err := p.Search(context.Background(), "golang.org")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, core.KindURL, results[0].Kind())
	assert.Equal(t, core.KindWeb, results[1].Kind())
}

func TestSearchEmpty(t *testing.T) {
	p, err := (&Provider{}).Factory("web", nil, nil)
	require.NoError(t, err)
	results, err := p.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate())
	assert.Error(t, (&Config{URLTemplate: "https://example.com/"}).Validate())
	assert.Error(t, (&Config{URLTemplate: "ftp://example.com/%s"}).Validate())
	assert.Error(t, (&Config{URLTemplate: "https://x/%s/%s"}).Validate())
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, core.GetGlobalRegistry().Prototypes(), "web")
}
