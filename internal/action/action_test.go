package action

import (
	"testing"

	"github.com/aescanero/goto-dispatcher/internal/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	outputs []Output
}

func (c *collector) Emit(o Output) {
	c.outputs = append(c.outputs, o)
}

func (c *collector) messages() []string {
	out := make([]string, 0, len(c.outputs))
	for _, o := range c.outputs {
		out = append(out, o.Message)
	}
	return out
}

func TestHandlerRendersMessage(t *testing.T) {
	runner := NewRunner(nil)
	sink := &collector{}
	table := dispatch.NewTable().Add("/search.htm", dispatch.Structured(
		dispatch.Endpoint{},
		"",
		map[string]*dispatch.Subroute{
			"#advanced": dispatch.NewSubroute(dispatch.Direct(runner.Handler("app.advanced", Action{
				Message: "{{controller}} at {{href location.path location.fragment}} via {{target}}",
			}, sink)), ""),
		},
	))
	d := dispatch.New(table, nil, dispatch.DefaultOptions(), nil, nil)

	d.To("/search.htm#advanced")

	require.Len(t, sink.outputs, 1)
	assert.Equal(t, Output{Controller: "app.advanced", Message: "app.advanced at /search.htm#advanced via default"}, sink.outputs[0])
}

func TestHandlerGuard(t *testing.T) {
	runner := NewRunner(nil)
	sink := &collector{}
	guarded := runner.Handler("app.tab", Action{
		When:    "location.fragment == 'two'",
		Message: "tab {{location.fragment}}",
	}, sink)
	table := dispatch.NewTable().Add("/tabs", dispatch.Structured(dispatch.Endpoint{}, "", map[string]*dispatch.Subroute{
		"#one": dispatch.NewSubroute(dispatch.Direct(guarded), ""),
		"#two": dispatch.NewSubroute(dispatch.Direct(guarded), ""),
	}))
	d := dispatch.New(table, nil, dispatch.DefaultOptions(), nil, nil)

	d.To("/tabs#one").To("/tabs#two")

	assert.Equal(t, []string{"tab two"}, sink.messages())
}

func TestHandlerBrokenGuardSkipsAction(t *testing.T) {
	runner := NewRunner(nil)
	sink := &collector{}
	table := dispatch.NewTable().Add("/a", dispatch.Handle(runner.Handler("app.a", Action{
		When:    "location.path",
		Message: "never",
	}, sink)))
	d := dispatch.New(table, nil, dispatch.DefaultOptions(), nil, nil)

	assert.NotPanics(t, func() { d.To("/a") })
	assert.Empty(t, sink.outputs)
}

func TestHandlerJumpsToNavigator(t *testing.T) {
	runner := NewRunner(nil)
	sink := &collector{}
	controllers := dispatch.Controllers{
		"app": dispatch.Controllers{
			"home":    runner.Handler("app.home", Action{Message: "home", To: "basicSearch", Redirect: true}, sink),
			"search":  runner.Handler("app.search", Action{Message: "search", To: "/results.htm"}, sink),
			"results": runner.Handler("app.results", Action{Message: "results"}, sink),
		},
	}
	newTable := func() *dispatch.Table {
		return dispatch.NewTable().
			Add("/index.htm", dispatch.Reference("app.home")).
			Add("/search.htm", dispatch.Structured(dispatch.Ref("app.search"), "basicSearch", nil)).
			Add("/results.htm", dispatch.Reference("app.results"))
	}

	env := dispatch.NewMemoryEnvironment(dispatch.Location{Path: "/index.htm"})
	dispatch.New(newTable(), controllers, dispatch.DefaultOptions(), env, nil).ToCurrent()

	assert.Equal(t, []string{"home"}, sink.messages())
	assert.Equal(t, []string{"/search.htm"}, env.Assigned())

	sink.outputs = nil
	env = dispatch.NewMemoryEnvironment(dispatch.Location{Path: "/search.htm"})
	dispatch.New(newTable(), controllers, dispatch.DefaultOptions(), env, nil).ToCurrent()

	assert.Equal(t, []string{"search", "results"}, sink.messages())
	assert.Empty(t, env.Assigned())
}

func TestValidate(t *testing.T) {
	runner := NewRunner(nil)

	assert.NoError(t, runner.Validate(Action{When: "target == 'default'", Message: "{{controller}}"}))
	assert.Error(t, runner.Validate(Action{When: "target +"}))
	assert.Error(t, runner.Validate(Action{Message: "{{#if}}"}))
}

func TestTargetName(t *testing.T) {
	assert.Equal(t, DefaultTarget, TargetName(nil))
	assert.Equal(t, DefaultTarget, TargetName(dispatch.NewMemoryEnvironment(dispatch.Location{})))
	assert.Equal(t, "/a#b", TargetName(dispatch.NewAnchor("/a#b")))
}

func TestGuardSeesNavigator(t *testing.T) {
	runner := NewRunner(nil)
	sink := &collector{}
	hook := runner.Handler("app.hook", Action{
		When:    "location.navigator != ''",
		Message: "{{location.navigator}} to {{location.path}}",
	}, sink)
	newTable := func() *dispatch.Table {
		return dispatch.NewTable().
			Add("/results.htm", dispatch.Structured(dispatch.Endpoint{}, "results", nil)).
			SetBefore(dispatch.Direct(hook))
	}
	env := dispatch.NewMemoryEnvironment(dispatch.Location{Path: "/hello.htm"})

	dispatch.New(newTable(), nil, dispatch.DefaultOptions(), env, nil).Navigate("results", false, nil)
	assert.Equal(t, []string{"results to /results.htm"}, sink.messages())

	sink.outputs = nil
	dispatch.New(newTable(), nil, dispatch.DefaultOptions(), env, nil).To("/results.htm")
	assert.Empty(t, sink.messages())
}
