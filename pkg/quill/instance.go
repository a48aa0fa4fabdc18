package quill

import (
	"reflect"

	"github.com/vango-dev/quill/pkg/reactive"
	"github.com/vango-dev/quill/pkg/view"
)

// instance is a mounted component: a view computation in its own scope
// plus the output it last committed.
type instance struct {
	root     *Root
	comp     *view.Component
	key      string
	boundary view.Ref
	props    any

	owner *reactive.Owner
	cx    *view.Cx
	view  *reactive.Computation

	committed *view.Node
	desc      *view.Node // description of the first render, for Mount
	attached  bool       // Mount has returned
	renders   int
}

// render is the body of the view computation. Reads made by the component
// are tracked; reconciliation runs untracked in the instance scope, so
// nested instances live until they are unmounted rather than until the
// next render.
func (inst *instance) render() {
	inst.owner.StartRender()
	out := inst.comp.Render(inst.cx)
	inst.renders++

	rt := inst.root.rt
	rt.RunWithOwner(inst.owner, func() {
		rt.Untracked(inst.commit(out))
	})
}

func (inst *instance) commit(out *view.Node) func() {
	return func() {
		if !inst.attached {
			committed, desc, err := inst.root.rec.Materialize(out)
			inst.committed, inst.desc = committed, desc
			if err != nil {
				inst.root.errs = append(inst.root.errs, err)
			}
			return
		}
		script, committed, err := inst.root.rec.Reconcile(inst.committed, out, inst.boundary)
		inst.committed = committed
		inst.root.emit(script, err)
	}
}

// resolver connects the reconciler to the root's instances.
type resolver struct {
	root *Root
}

// Mount creates an instance in a child of the current scope. When called
// while a parent instance renders, that is the parent's scope, so
// unmounting the parent disposes the child.
func (res resolver) Mount(b *view.Node) (*view.Node, error) {
	r := res.root
	inst := &instance{
		root:     r,
		comp:     b.Comp,
		key:      b.Key,
		boundary: b.Ref,
		props:    b.Input,
	}
	inst.owner = r.rt.NewScope(nil)
	inst.cx = view.NewCx(r.rt, inst.owner, b.Input)
	r.instances[b.Ref] = inst
	inst.owner.OnCleanup(func() {
		delete(r.instances, b.Ref)
	})

	r.rt.RunWithOwner(inst.owner, func() {
		inst.view = reactive.NewView(r.rt, b.ComponentName(), inst.render)
	})
	inst.attached = true
	desc := inst.desc
	inst.desc = nil
	r.logger.Debug("mounted instance", "component", b.ComponentName(), "ref", b.Ref)
	return desc, nil
}

// Update re-renders the instance when its props changed.
func (res resolver) Update(old, next *view.Node) error {
	inst, ok := res.root.instances[old.Ref]
	if !ok {
		return nil
	}
	if reflect.DeepEqual(inst.props, next.Input) {
		return nil
	}
	inst.props = next.Input
	inst.cx.SetProps(next.Input)
	inst.view.Invalidate()
	return nil
}

// Unmount disposes the instance scope and everything created in it,
// including nested instances.
func (res resolver) Unmount(b *view.Node) {
	inst, ok := res.root.instances[b.Ref]
	if !ok {
		return
	}
	res.root.logger.Debug("unmounting instance", "component", b.ComponentName(), "ref", b.Ref)
	inst.owner.Dispose()
}
