// Package render personalises email bodies with Liquid templates.
package render

import (
	"fmt"
	"sync"

	"github.com/osteele/liquid"
)

type Bindings = map[string]interface{}

type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // source -> *liquid.Template
}

func New() *Renderer {
	return &Renderer{engine: liquid.NewEngine()}
}

// Render executes src with the given bindings. Missing variables render empty.
func (r *Renderer) Render(src string, bindings Bindings) (string, error) {
	tpl, err := r.parse(src)
	if err != nil {
		return "", err
	}

	out, renderErr := tpl.RenderString(bindings)
	if renderErr != nil {
		return "", fmt.Errorf("failed to render template: %w", renderErr)
	}
	return out, nil
}

// Validate reports whether src parses as a template.
func (r *Renderer) Validate(src string) error {
	_, err := r.parse(src)
	return err
}

func (r *Renderer) parse(src string) (*liquid.Template, error) {
	if cached, ok := r.cache.Load(src); ok {
		return cached.(*liquid.Template), nil
	}

	tpl, err := r.engine.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	r.cache.Store(src, tpl)
	return tpl, nil
}
