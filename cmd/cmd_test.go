package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/omnibox/pkg/api"
	"github.com/rubiojr/omnibox/pkg/config"
	"github.com/rubiojr/omnibox/pkg/core"
	_ "github.com/rubiojr/omnibox/pkg/providers/contacts"
	_ "github.com/rubiojr/omnibox/pkg/providers/files"
	_ "github.com/rubiojr/omnibox/pkg/providers/github"
	"github.com/rubiojr/omnibox/pkg/providers/web"
	_ "github.com/rubiojr/omnibox/pkg/providers/youtube"
	"github.com/rubiojr/omnibox/pkg/storage"
)

const firefoxDesktop = `[Desktop Entry]
Type=Application
Name=Firefox
Exec=firefox %u
Icon=firefox
`

// writeTestConfig creates a config, a storage dir and an app dir holding
// firefox.desktop, and returns the config path.
func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	appDir := filepath.Join(dir, "applications")
	require.NoError(t, os.MkdirAll(appDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "firefox.desktop"), []byte(firefoxDesktop), 0644))

	cfg := `storage_dir = "` + filepath.Join(dir, "data") + `"

[apps]
dirs = ["` + appDir + `"]
cache = true

[providers.web]
type = "web"

[providers.youtube]
type = "youtube"
` + extra
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

func TestConvertRawConfigToType(t *testing.T) {
	raw := map[string]interface{}{
		"engine":       "DuckDuckGo",
		"url_template": "https://duckduckgo.com/?q=%s",
	}
	converted, err := convertRawConfigToType(&web.Provider{}, raw)
	require.NoError(t, err)

	cfg, ok := converted.(*web.Config)
	require.True(t, ok)
	assert.Equal(t, "DuckDuckGo", cfg.Engine)
	assert.Equal(t, "https://duckduckgo.com/?q=%s", cfg.URLTemplate)

	empty, err := convertRawConfigToType(&web.Provider{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &web.Config{}, empty)
}

func TestCreateProvidersFromConfig(t *testing.T) {
	cfg, err := config.ParseConfig([]byte(`
[prefixes]
ddg = ["d", "dd"]

[providers.ddg]
type = "web"
[providers.ddg.config]
engine = "DuckDuckGo"
url_template = "https://duckduckgo.com/?q=%s"

[providers.github]
type = "github"
enabled = false

[providers.yt]
type = "youtube"
`))
	require.NoError(t, err)

	registry := core.GetGlobalRegistry()
	require.NoError(t, createProvidersFromConfig(registry, cfg, nil))

	assert.Len(t, registry.AllProviders(), 2)
	ddg := registry.FindByPrefix("dd")
	require.NotNil(t, ddg)
	assert.Equal(t, "DuckDuckGo", ddg.Descriptor().Name)
	assert.Nil(t, registry.FindByPrefix("w"))
	assert.Equal(t, "yt", registry.FindByPrefix("y").Descriptor().ID)
	assert.Nil(t, registry.FindByPrefix("gh"))
}

func TestCreateProvidersUnknownType(t *testing.T) {
	cfg, err := config.ParseConfig([]byte(`
[providers.mystery]
type = "does-not-exist"
`))
	require.NoError(t, err)
	err = createProvidersFromConfig(core.GetGlobalRegistry(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist")
}

func TestCreateProvidersInvalidConfig(t *testing.T) {
	cfg, err := config.ParseConfig([]byte(`
[providers.bad]
type = "web"
[providers.bad.config]
url_template = "https://example.com/"
`))
	require.NoError(t, err)
	require.Error(t, createProvidersFromConfig(core.GetGlobalRegistry(), cfg, nil))
}

func TestRunSearchDefaultPath(t *testing.T) {
	path := writeTestConfig(t, "")
	ctx := context.Background()

	rt, err := openRuntime(ctx, path)
	require.NoError(t, err)
	defer rt.Close()

	res := rt.dispatcher.Search(ctx, "fire")
	require.Len(t, res.Results, 1)
	assert.Equal(t, "Firefox", res.Results[0].Title())

	res = rt.dispatcher.Search(ctx, "y lofi")
	require.NotNil(t, res.Provider)
	assert.Equal(t, "youtube", res.Provider.ID)
}

func TestShell(t *testing.T) {
	path := writeTestConfig(t, "")
	in := strings.NewReader("fire\n:launch 1\nw golang\n:launch 1\n:bogus\n:quit\n")
	var out bytes.Buffer

	require.NoError(t, runShell(context.Background(), path, in, &out, 5*time.Second))

	output := out.String()
	assert.Contains(t, output, "Firefox")
	assert.Contains(t, output, "launched Firefox")
	assert.Contains(t, output, `Search Google for "golang"`)
	assert.Contains(t, output, "result is not an app")
	assert.Contains(t, output, "unknown command :bogus")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	store, err := storage.Open(cfg.DBPath())
	require.NoError(t, err)
	defer store.Close()
	recent, err := store.RecentApps(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "firefox", recent[0].ID)
}

func TestParseContacts(t *testing.T) {
	contacts, err := parseContacts(strings.NewReader(`
contacts:
  - name: Alice Smith
    email: alice@example.com
  - name: Bob Jones
    phone: "555-0100"
    id: bob
`))
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Alice Smith", contacts[0].Name)
	assert.Equal(t, "bob", contacts[1].ID)
	assert.Equal(t, "555-0100", contacts[1].Phone)

	_, err = parseContacts(strings.NewReader("contacts:\n  - email: x@example.com\n"))
	require.Error(t, err)

	empty, err := parseContacts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFormatResults(t *testing.T) {
	out := formatResults([]core.Result{
		core.AppResult{App: core.AppEntry{ID: "firefox", Name: "Firefox", Exec: "firefox"}},
		core.PermissionRequiredResult{ProviderID: "contacts", Permission: core.PermissionContacts},
	})
	assert.Contains(t, out, "Firefox")
	assert.Contains(t, out, "App")
	assert.Contains(t, out, "permissions grant contacts")

	assert.Contains(t, formatResults(nil), "No results")
}

func TestSetPrefixesAndPermissions(t *testing.T) {
	path := writeTestConfig(t, "")

	require.NoError(t, setPrefixes(path, "web", []string{"g", "web"}))
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"g", "web"}, cfg.Prefixes["web"])

	require.Error(t, setPrefixes(path, "nope", []string{"n"}))
	require.Error(t, setPrefixes(path, "youtube", []string{"g"}))

	require.NoError(t, setPrefixes(path, "web", nil))
	cfg, err = config.LoadConfig(path)
	require.NoError(t, err)
	assert.NotContains(t, cfg.Prefixes, "web")

	require.NoError(t, setPermission(path, core.PermissionFiles, true))
	cfg, err = config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []core.Permission{core.PermissionFiles}, cfg.GrantedPermissions())

	require.NoError(t, setPermission(path, core.PermissionFiles, false))
	require.Error(t, setPermission(path, "camera", true))
}

func TestServePermissionReloadRerunsSessions(t *testing.T) {
	contactsCfg := `
[providers.contacts]
type = "contacts"
`
	path := writeTestConfig(t, contactsCfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := openRuntime(ctx, path)
	require.NoError(t, err)
	defer rt.Close()
	_, err = rt.store.AddContact(ctx, core.ContactResult{Name: "Alice Smith", Phone: "555-0100"})
	require.NoError(t, err)

	server := api.NewServer(rt.dispatcher, rt.opts)
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	watcher := config.NewWatcher(path, rt.cfg)
	go server.FollowSettings(ctx, watcher)
	go followPermissions(ctx, watcher, server)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/session", nil)
	require.NoError(t, err)
	defer conn.Close()

	kinds := func(match func([]api.ResultResponse) bool) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, data, err := conn.ReadMessage()
			require.NoError(t, err)
			var msg api.StateMessage
			if json.Unmarshal(data, &msg) != nil || msg.Type != api.MessageState {
				continue
			}
			if msg.State.Query == "c ali" && !msg.State.Loading && match(msg.Results) {
				return
			}
		}
		t.Fatal("did not receive expected state")
	}

	require.NoError(t, conn.WriteJSON(api.ClientMessage{Type: api.MessageQuery, Text: "c ali"}))
	kinds(func(r []api.ResultResponse) bool {
		return len(r) == 1 && r[0].Kind == core.KindPermission
	})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = append(data, "\n[permissions]\ngranted = [\"contacts\"]\n"...)
	require.NoError(t, os.WriteFile(path, data, 0644))
	require.NoError(t, watcher.Reload())

	kinds(func(r []api.ResultResponse) bool {
		return len(r) == 1 && r[0].Kind == core.KindContact && r[0].Title == "Alice Smith"
	})
	assert.True(t, rt.perms.Granted(core.PermissionContacts))
}

func TestDuplicatePrefixFirstRegistrantWins(t *testing.T) {
	path := writeTestConfig(t, `
[prefixes]
web = ["w"]
youtube = ["w", "y"]
`)
	rt, err := openRuntime(context.Background(), path)
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, "web", rt.registry.FindByPrefix("w").Descriptor().ID)
	assert.Equal(t, "youtube", rt.registry.FindByPrefix("y").Descriptor().ID)

	conflicts := rt.registry.Snapshot().Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "youtube", conflicts[0].ProviderID)
	assert.Equal(t, "web", conflicts[0].Owner)
}

func TestRunMigrations(t *testing.T) {
	path := writeTestConfig(t, "")

	var out bytes.Buffer
	require.NoError(t, runMigrations(path, true, &out))
	assert.Contains(t, out.String(), "Applied migrations: 0")
	assert.Contains(t, out.String(), "Pending migrations: 2")
	assert.Contains(t, out.String(), "001: launches")

	out.Reset()
	require.NoError(t, runMigrations(path, false, &out))
	assert.Contains(t, out.String(), "Applied migrations: 2")
	assert.Contains(t, out.String(), "database is up to date")
}
