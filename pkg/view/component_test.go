package view

import (
	"testing"

	"github.com/vango-dev/quill/pkg/reactive"
)

type greeting struct {
	Name string
}

func TestBind(t *testing.T) {
	c := Define("Greeter", func(cx *Cx) *Node { return Text("hi") })

	b := c.Bind(greeting{"ada"})
	if b.Kind != KindComponent || b.Comp != c || b.ComponentName() != "Greeter" {
		t.Errorf("unexpected boundary: %+v", b)
	}
	if b.Input.(greeting).Name != "ada" {
		t.Errorf("boundary should carry props, got %v", b.Input)
	}

	k := c.BindKeyed("k1", nil)
	if k.Key != "k1" {
		t.Errorf("Key = %q, want k1", k.Key)
	}
}

func TestDefineWith(t *testing.T) {
	rt := reactive.New(reactive.Config{})
	c := DefineWith("Greeter", func(cx *Cx, g greeting) *Node {
		return Textf("hello %s", g.Name)
	})

	out := c.Render(NewCx(rt, rt.NewScope(nil), greeting{"ada"}))
	if out.Text != "hello ada" {
		t.Errorf("got %q", out.Text)
	}

	out = c.Render(NewCx(rt, rt.NewScope(nil), nil))
	if out.Text != "hello " {
		t.Errorf("nil props should give the zero value, got %q", out.Text)
	}
}

func TestPropsOfMismatchPanics(t *testing.T) {
	rt := reactive.New(reactive.Config{})
	cx := NewCx(rt, rt.NewScope(nil), "not a greeting")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on props type mismatch")
		}
	}()
	PropsOf[greeting](cx)
}

func TestHooksKeepIdentityAcrossRenders(t *testing.T) {
	rt := reactive.New(reactive.Config{})
	owner := rt.NewScope(nil)
	cx := NewCx(rt, owner, nil)

	effectRuns := 0
	render := func(props int) (*reactive.Signal[int], *reactive.Memo[int]) {
		cx.SetProps(props)
		owner.StartRender()
		factor := PropsOf[int](cx)
		count := UseLocal(cx, 1)
		scaled := UseMemo(cx, func() int { return count.Get() * factor })
		UseEffect(cx, func() reactive.Cleanup {
			_ = count.Get()
			effectRuns++
			return nil
		})
		return count, scaled
	}

	c1, m1 := render(10)
	c1.Set(2)
	c2, m2 := render(100)

	if c1 != c2 || m1 != m2 {
		t.Fatal("hooks should return the same instances on every render")
	}
	if c2.Get() != 2 {
		t.Errorf("local state should survive re-render, got %d", c2.Get())
	}
	if m2.Get() != 200 {
		t.Errorf("memo should use the closure over the new props, got %d", m2.Get())
	}
	if effectRuns != 1 {
		t.Errorf("re-render should not run the effect, got %d runs", effectRuns)
	}

	rt.Flush()
	if effectRuns != 2 {
		t.Errorf("effect should re-run after its source changed, got %d runs", effectRuns)
	}
}

func TestUseMemoKeepsValueAcrossRenders(t *testing.T) {
	rt := reactive.New(reactive.Config{})
	owner := rt.NewScope(nil)
	cx := NewCx(rt, owner, nil)
	count := reactive.NewSignal(rt, 1)

	computes := 0
	render := func() *reactive.Memo[int] {
		owner.StartRender()
		return UseMemo(cx, func() int {
			computes++
			return count.Get() * 2
		})
	}

	m := render()
	render()
	render()
	if rt.HasWork() {
		t.Error("re-rendering with unchanged sources should not dirty the memo")
	}
	rt.Flush()
	if m.Get() != 2 || computes != 1 {
		t.Errorf("expected one computation with value 2, got %d computations, value %d", computes, m.Get())
	}

	count.Set(2)
	rt.Flush()
	if m.Get() != 4 || computes != 2 {
		t.Errorf("expected a recompute after the source changed, got %d computations, value %d", computes, m.Get())
	}
}

func TestContextAcrossInstances(t *testing.T) {
	rt := reactive.New(reactive.Config{})
	type themeKey struct{}

	parent := NewCx(rt, rt.NewScope(nil), nil)
	parent.Provide(themeKey{}, "dark")

	child := NewCx(rt, rt.NewScope(parent.Owner()), nil)
	theme, ok := UseContext[string](child, themeKey{})
	if !ok || theme != "dark" {
		t.Errorf("expected dark, got %q (%v)", theme, ok)
	}

	if _, ok := UseContext[int](child, themeKey{}); ok {
		t.Error("wrong type should report not found")
	}
}

func TestCxOnCleanup(t *testing.T) {
	rt := reactive.New(reactive.Config{})
	owner := rt.NewScope(nil)
	cx := NewCx(rt, owner, nil)

	cleaned := false
	cx.OnCleanup(func() { cleaned = true })
	owner.Dispose()
	if !cleaned {
		t.Error("cleanup should run when the instance scope is disposed")
	}
}
