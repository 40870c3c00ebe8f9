package manifest

import (
	"errors"
	"testing"

	"github.com/aescanero/goto-dispatcher/internal/action"
	"github.com/aescanero/goto-dispatcher/internal/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchRoutes = `
options:
  root_path: /test
  ignore_case: false
before: {message: before}
routes:
  /hello.htm:
    message: "Hello World!"
  /index.htm: app.home
  /search.htm:
    handler: app.search
    navigator: basicSearch
    subroutes:
      "#advanced":
        handler: app.advancedSearch
        navigator: advancedSearch
      "#simple": app.simple
      "#inline": {message: inline}
controllers:
  app:
    home: {message: home}
    search: {message: search}
    advancedSearch: {message: advanced}
`

type collector struct {
	messages []string
}

func (c *collector) Emit(o action.Output) {
	c.messages = append(c.messages, o.Message)
}

func TestParseShapes(t *testing.T) {
	m, err := Parse([]byte(searchRoutes))
	require.NoError(t, err)

	hello := m.Routes["/hello.htm"]
	require.NotNil(t, hello.Action)
	assert.False(t, hello.Structured)
	assert.Equal(t, "Hello World!", hello.Action.Message)

	index := m.Routes["/index.htm"]
	assert.False(t, index.Structured)
	assert.Equal(t, "app.home", index.Ref)

	search := m.Routes["/search.htm"]
	assert.True(t, search.Structured)
	assert.Equal(t, "app.search", search.Handler.Ref)
	assert.Equal(t, "basicSearch", search.Navigator)
	require.Len(t, search.Subroutes, 3)
	assert.Equal(t, "app.advancedSearch", search.Subroutes["#advanced"].Ref)
	assert.Equal(t, "advancedSearch", search.Subroutes["#advanced"].Navigator)
	assert.Equal(t, "app.simple", search.Subroutes["#simple"].Ref)
	assert.Equal(t, "inline", search.Subroutes["#inline"].Action.Message)

	require.NotNil(t, m.Controllers["app"])
	assert.Equal(t, "home", m.Controllers["app"].Children["home"].Action.Message)

	require.NotNil(t, m.Before)
	assert.Equal(t, "before", m.Before.Action.Message)
}

func TestParseJSON(t *testing.T) {
	m, err := Parse([]byte(`{
		"routes": {
			"/index.htm": "app.home",
			"/results.htm": {"handler": "app.results", "navigator": "results"}
		},
		"controllers": {"app": {"home": {"message": "home"}, "results": {"message": "results"}}}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "app.home", m.Routes["/index.htm"].Ref)
	assert.Equal(t, "results", m.Routes["/results.htm"].Navigator)
	assert.Empty(t, m.UnresolvedRefs())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not yaml", data: "routes: [unclosed"},
		{name: "no routes", data: "controllers: {}"},
		{name: "relative key", data: "routes: {index.htm: app.home}"},
		{name: "empty route", data: "routes: {/index.htm: }"},
		{name: "sequence endpoint", data: "routes: {/index.htm: [a, b]}"},
		{name: "empty subroute", data: "routes: {/a: {handler: x, subroutes: {\"#b\": }}}"},
		{name: "scalar controller", data: "routes: {/a: app.a}\ncontrollers: {app: {a: nope}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestValidationErrorsWrapSentinel(t *testing.T) {
	_, err := Parse([]byte("routes: {index.htm: app.home}"))

	assert.True(t, errors.Is(err, ErrInvalidManifest))
}

func TestOptionsApply(t *testing.T) {
	m, err := Parse([]byte(searchRoutes))
	require.NoError(t, err)

	opts := m.Options.Apply(dispatch.DefaultOptions())

	assert.Equal(t, "/test", opts.RootPath)
	assert.False(t, opts.IgnoreCase)
	assert.True(t, opts.IgnoreSlash)
	assert.True(t, opts.BindHashClicks)

	var none *Options
	assert.Equal(t, dispatch.DefaultOptions(), none.Apply(dispatch.DefaultOptions()))
}

func TestUnresolvedRefs(t *testing.T) {
	m, err := Parse([]byte(searchRoutes))
	require.NoError(t, err)

	assert.Equal(t, []string{"app.simple"}, m.UnresolvedRefs())
}

func TestCheck(t *testing.T) {
	runner := action.NewRunner(nil)

	m, err := Parse([]byte(searchRoutes))
	require.NoError(t, err)
	assert.NoError(t, m.Check(runner))

	bad, err := Parse([]byte("routes: {/a: {when: 'location.path +', message: x}}"))
	require.NoError(t, err)
	err = bad.Check(runner)
	assert.ErrorIs(t, err, ErrInvalidManifest)
	assert.ErrorContains(t, err, "/a")
}

func TestBuildDispatches(t *testing.T) {
	m, err := Parse([]byte(searchRoutes))
	require.NoError(t, err)

	sink := &collector{}
	table, controllers := m.Build(action.NewRunner(nil), sink)
	opts := m.Options.Apply(dispatch.DefaultOptions())
	d := dispatch.New(table, controllers, opts, nil, nil)

	d.To("/test/search.htm#advanced").To("/test/hello.htm").To("/test/search.htm#inline").To("/test/search.htm#simple")

	assert.Equal(t, []string{"before", "search", "advanced", "Hello World!", "inline"}, sink.messages)
	assert.Equal(t, dispatch.Location{Path: "/search.htm", Fragment: "advanced"}, d.Navigators()["advancedSearch"])
}

func TestBuildIsFreshPerCall(t *testing.T) {
	m, err := Parse([]byte(searchRoutes))
	require.NoError(t, err)
	runner := action.NewRunner(nil)

	first := &collector{}
	table, controllers := m.Build(runner, first)
	dispatch.New(table, controllers, dispatch.DefaultOptions(), nil, nil).To("/index.htm").To("/index.htm")

	second := &collector{}
	table, controllers = m.Build(runner, second)
	dispatch.New(table, controllers, dispatch.DefaultOptions(), nil, nil).To("/index.htm")

	assert.Equal(t, []string{"before", "home"}, first.messages)
	assert.Equal(t, []string{"before", "home"}, second.messages)
}

func TestLoadShippedRoutes(t *testing.T) {
	m, err := Load("../../configs/routes.yaml")
	require.NoError(t, err)

	assert.Empty(t, m.UnresolvedRefs())
	assert.NoError(t, m.Check(action.NewRunner(nil)))
	assert.Len(t, m.Routes, 5)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does-not-exist.yaml")

	assert.ErrorContains(t, err, "failed to read manifest")
}
