package action

import (
	"context"
	"strings"

	"github.com/aescanero/goto-dispatcher/internal/dispatch"
	"github.com/aescanero/goto-dispatcher/internal/eval/cel"
	"github.com/aescanero/goto-dispatcher/internal/eval/template"
	"go.uber.org/zap"
)

// DefaultTarget names the environment target in guards and messages
const DefaultTarget = "default"

// Action is a declarative controller: an optional guard, a message and an
// optional jump to a navigator or path.
type Action struct {
	// When is a CEL guard; the action is skipped unless it yields true
	When string `yaml:"when,omitempty" json:"when,omitempty"`

	// Message is a Handlebars template written to the sink
	Message string `yaml:"message,omitempty" json:"message,omitempty"`

	// To is a navigator name, or a path when it starts with "/"
	To string `yaml:"to,omitempty" json:"to,omitempty"`

	// Fragment goes with a path in To
	Fragment string `yaml:"fragment,omitempty" json:"fragment,omitempty"`

	// Redirect lets a navigator in To leave the current page
	Redirect bool `yaml:"redirect,omitempty" json:"redirect,omitempty"`
}

// Keys lists the mapping keys that mark a declaration as an action.
var Keys = []string{"when", "message", "to", "fragment", "redirect"}

// Output is one rendered message
type Output struct {
	Controller string `json:"controller"`
	Message    string `json:"message"`
}

// Sink receives rendered messages
type Sink interface {
	Emit(Output)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Output)

// Emit implements Sink.
func (f SinkFunc) Emit(o Output) { f(o) }

// Runner turns actions into dispatch handlers
type Runner struct {
	evaluator *cel.Evaluator
	engine    *template.Engine
	logger    *zap.Logger
}

// NewRunner creates a runner with its own guard and template caches
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		evaluator: cel.NewEvaluator(),
		engine:    template.NewEngine(),
		logger:    logger,
	}
}

// Validate compiles the action's guard and message
func (r *Runner) Validate(a Action) error {
	if a.When != "" {
		if err := r.evaluator.ValidateExpression(a.When); err != nil {
			return err
		}
	}
	if a.Message != "" {
		if err := r.engine.ValidateTemplate(a.Message); err != nil {
			return err
		}
	}
	return nil
}

// Handler binds an action to a sink. Guard or template failures are logged
// and skip the failing part; they never stop the dispatch.
func (r *Runner) Handler(controller string, a Action, sink Sink) dispatch.HandlerFunc {
	return func(d *dispatch.Dispatcher, target dispatch.Target) {
		vars := r.vars(d, controller, target)

		if a.When != "" {
			ok, err := r.evaluator.EvaluateBool(context.Background(), a.When, vars)
			if err != nil {
				r.logger.Warn("action guard failed",
					zap.String("controller", controller),
					zap.String("when", a.When),
					zap.Error(err),
				)
				return
			}
			if !ok {
				r.logger.Debug("action guard declined",
					zap.String("controller", controller),
					zap.String("when", a.When),
				)
				return
			}
		}

		if a.Message != "" {
			msg, err := r.engine.Render(a.Message, vars)
			if err != nil {
				r.logger.Warn("action message failed",
					zap.String("controller", controller),
					zap.Error(err),
				)
			} else if sink != nil {
				sink.Emit(Output{Controller: controller, Message: msg})
			}
		}

		switch {
		case a.To == "":
		case strings.HasPrefix(a.To, dispatch.PathSeparator):
			d.ToFragment(a.To, a.Fragment, target)
		default:
			d.Navigate(a.To, a.Redirect, target)
		}
	}
}

// vars is the data guards and messages see
func (r *Runner) vars(d *dispatch.Dispatcher, controller string, target dispatch.Target) map[string]interface{} {
	loc, _ := d.Active()
	return map[string]interface{}{
		"location": map[string]interface{}{
			"path":      loc.Path,
			"fragment":  loc.Fragment,
			"root":      d.Options().RootPath,
			"navigator": d.ActiveNavigator(),
		},
		"controller": controller,
		"target":     TargetName(target),
	}
}

// TargetName describes a dispatch target: the href of a clicked link, or
// DefaultTarget.
func TargetName(target dispatch.Target) string {
	if link, ok := target.(dispatch.Link); ok {
		return link.Href()
	}
	return DefaultTarget
}
