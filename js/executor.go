package js

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chrisuehlinger/glcontext/html"
	"github.com/chrisuehlinger/glcontext/internal/metrics"
	"github.com/dop251/goja"
)

// ScriptSource loads the text of an external script.
type ScriptSource interface {
	LoadScript(ctx context.Context, src string) (string, error)
}

// ScriptExecutor loads a page into a runtime, runs its scripts and drives
// the event loop.
type ScriptExecutor struct {
	runtime  *Runtime
	page     *html.Page
	document *goja.Object
	canvases []*Canvas
	byID     map[string]*Canvas
	source   ScriptSource
}

// NewScriptExecutor creates a new script executor.
func NewScriptExecutor(runtime *Runtime) *ScriptExecutor {
	return &ScriptExecutor{
		runtime: runtime,
		byID:    make(map[string]*Canvas),
	}
}

// SetScriptSource enables external scripts. Without a source, scripts
// with a src attribute are skipped.
func (se *ScriptExecutor) SetScriptSource(src ScriptSource) {
	se.source = src
}

// Runtime returns the underlying runtime.
func (se *ScriptExecutor) Runtime() *Runtime {
	return se.runtime
}

// Page returns the loaded page, or nil.
func (se *ScriptExecutor) Page() *html.Page {
	return se.page
}

// Canvases returns the bound canvases in document order.
func (se *ScriptExecutor) Canvases() []*Canvas {
	return se.canvases
}

// CanvasByID returns the canvas with the given id, or nil.
func (se *ScriptExecutor) CanvasByID(id string) *Canvas {
	return se.byID[id]
}

// LoadHTML parses a page and binds its document and canvases.
func (se *ScriptExecutor) LoadHTML(r io.Reader) error {
	page, err := html.ParseReader(r)
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}
	se.page = page

	for _, el := range page.Canvases {
		c := NewCanvas(se.runtime, el)
		se.canvases = append(se.canvases, c)
		if id := el.ID(); id != "" {
			if _, exists := se.byID[id]; !exists {
				se.byID[id] = c
			}
		}
	}

	se.bindDocument()
	se.runtime.logger.Debug().
		Int("canvases", len(page.Canvases)).
		Int("scripts", len(page.Scripts)).
		Msg("page loaded")
	return nil
}

// bindDocument installs a minimal document object exposing the canvases.
func (se *ScriptExecutor) bindDocument() {
	vm := se.runtime.vm
	doc := vm.NewObject()

	doc.Set("title", se.page.Title)

	doc.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if c := se.byID[call.Argument(0).String()]; c != nil {
			return c.object
		}
		return goja.Null()
	})

	doc.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		tag := strings.ToLower(call.Argument(0).String())
		items := make([]interface{}, 0, len(se.canvases))
		if tag == "canvas" || tag == "*" {
			for _, c := range se.canvases {
				items = append(items, c.object)
			}
		}
		return vm.NewArray(items...)
	})

	se.runtime.events.BindEventTarget(doc)
	se.document = doc
	vm.Set("document", doc)
}

// ExecuteScripts runs the page's classic scripts in document order.
// A failing script does not stop later ones.
func (se *ScriptExecutor) ExecuteScripts() []error {
	return se.ExecuteScriptsContext(context.Background())
}

// ExecuteScriptsContext is ExecuteScripts with a context bounding the
// loading of external scripts.
func (se *ScriptExecutor) ExecuteScriptsContext(ctx context.Context) []error {
	if se.page == nil {
		return nil
	}

	var errs []error
	for i, script := range se.page.Scripts {
		if !script.IsClassic() {
			continue
		}

		name := script.ID()
		if name == "" {
			name = fmt.Sprintf("inline-script-%d", i)
		}

		code := script.Source
		if src := script.Src(); src != "" {
			if se.source == nil {
				se.runtime.logger.Warn().Str("src", src).Msg("external scripts are not loaded")
				continue
			}
			loaded, err := se.source.LoadScript(ctx, src)
			metrics.RecordScriptLoad(err)
			if err != nil {
				se.runtime.logger.Error().Err(err).Str("src", src).Msg("script load failed")
				errs = append(errs, err)
				continue
			}
			code, name = loaded, src
		}

		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if err := se.runtime.ExecuteScript(code, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// RunEventLoop runs the event loop until idle or until maxTurns iterations.
func (se *ScriptExecutor) RunEventLoop(maxTurns int) int {
	return se.runtime.RunUntilIdle(maxTurns)
}

// Cleanup tears down the realm, releasing every reflected object.
func (se *ScriptExecutor) Cleanup() {
	se.runtime.Teardown()
	se.canvases = nil
	se.byID = make(map[string]*Canvas)
}
