package stated

import (
	"fmt"
	"strings"
	"testing"
)

// classMap is a ClassLookup over a fixed set of classes.
type classMap map[string]*Class

func (m classMap) Class(name string) (*Class, bool) {
	class, ok := m[name]
	return class, ok
}

func constant(value any) Builder {
	return Fn(func(*Self, ...any) (any, error) {
		return value, nil
	})
}

func newArticleClass() *Class {
	draft := NewStateDefinition("Draft").
		Public("setTitle", Fn(func(self *Self, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("setTitle expects one argument, got %d", len(args))
			}
			title, err := self.Call("normalizeTitle", args[0])
			if err != nil {
				return nil, err
			}
			self.Set("title", title)
			return nil, nil
		})).
		Public("getTitle", Fn(func(self *Self, _ ...any) (any, error) {
			return self.Get("title"), nil
		})).
		Public("publish", Fn(func(self *Self, _ ...any) (any, error) {
			return nil, self.Proxy().SwitchState("Published")
		})).
		Protected("normalizeTitle", Fn(func(_ *Self, args ...any) (any, error) {
			title, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("title must be a string, got %T", args[0])
			}
			return strings.TrimSpace(title), nil
		}))

	published := NewStateDefinition("Published").
		Public("getTitle", Fn(func(self *Self, _ ...any) (any, error) {
			return self.Get("title"), nil
		})).
		Public(MethodToString, Fn(func(self *Self, _ ...any) (any, error) {
			return fmt.Sprintf("%v (published)", self.Get("title")), nil
		}))

	return NewClass("Article",
		WithStates(draft, published),
		WithDefaultState("Draft"),
		WithConstructor(func(args ...any) (map[string]any, error) {
			if len(args) == 0 {
				return nil, nil
			}
			return map[string]any{"title": args[0]}, nil
		}),
	)
}

func newTestLoader(t *testing.T, classes ...*Class) *Loader {
	t.Helper()
	loader := NewLoader(WithLoaderStartupRegistry(NewStartupRegistry()))
	if err := loader.Register(classes...); err != nil {
		t.Fatalf("register: %v", err)
	}
	return loader
}

func newProxyWithStates(t *testing.T, class string, definitions ...*StateDefinition) *Proxy {
	t.Helper()
	proxy := NewProxy(class)
	for _, def := range definitions {
		if err := proxy.RegisterState(def.Name(), NewState(def, class)); err != nil {
			t.Fatalf("register %s: %v", def.Name(), err)
		}
	}
	return proxy
}
