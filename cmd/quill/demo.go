package main

import (
	"sort"
	"strings"

	"github.com/vango-dev/quill/pkg/reactive"
	"github.com/vango-dev/quill/pkg/view"
)

// lowStock marks rows whose quantity is at or below it.
const lowStock = 2

// Item is one inventory entry.
type Item struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Qty  int    `yaml:"qty" json:"qty"`
}

// Sort orders accepted by the inventory.
const (
	SortByID   = "id"
	SortByName = "name"
	SortByQty  = "qty"
)

type inventoryKey struct{}

// inventory is the reactive state behind the demo UI.
type inventory struct {
	items    *reactive.Signal[[]Item]
	filter   *reactive.Signal[string]
	sortBy   *reactive.Signal[string]
	selected *reactive.Signal[string]

	visible *reactive.Memo[[]Item]
	units   *reactive.Memo[int]
}

func newInventory(rt *reactive.Runtime) *inventory {
	inv := &inventory{
		items:    reactive.NewSignal[[]Item](rt, nil).Named("items"),
		filter:   reactive.NewSignal(rt, "").Named("filter"),
		sortBy:   reactive.NewSignal(rt, SortByID).Named("sortBy"),
		selected: reactive.NewSignal(rt, "").Named("selected"),
	}
	inv.visible = reactive.NewMemo(rt, func() []Item {
		filter := strings.ToLower(inv.filter.Get())
		out := make([]Item, 0, len(inv.items.Get()))
		for _, it := range inv.items.Get() {
			if filter == "" || strings.Contains(strings.ToLower(it.Name), filter) {
				out = append(out, it)
			}
		}
		sortItems(out, inv.sortBy.Get())
		return out
	}).Named("visible")
	inv.units = reactive.NewMemo(rt, func() int {
		total := 0
		for _, it := range inv.items.Get() {
			total += it.Qty
		}
		return total
	}).Named("units")
	return inv
}

func sortItems(items []Item, by string) {
	sort.SliceStable(items, func(i, j int) bool {
		switch by {
		case SortByName:
			return items[i].Name < items[j].Name
		case SortByQty:
			return items[i].Qty < items[j].Qty
		default:
			return items[i].ID < items[j].ID
		}
	})
}

// upsert replaces the item with the same ID or appends it.
func (inv *inventory) upsert(item Item) {
	inv.items.Update(func(items []Item) []Item {
		out := make([]Item, 0, len(items)+1)
		found := false
		for _, it := range items {
			if it.ID == item.ID {
				it = item
				found = true
			}
			out = append(out, it)
		}
		if !found {
			out = append(out, item)
		}
		return out
	})
}

func (inv *inventory) remove(id string) {
	inv.items.Update(func(items []Item) []Item {
		out := make([]Item, 0, len(items))
		for _, it := range items {
			if it.ID != id {
				out = append(out, it)
			}
		}
		return out
	})
	if inv.selected.Peek() == id {
		inv.selected.Set("")
	}
}

func (inv *inventory) find(id string) (Item, bool) {
	for _, it := range inv.items.Get() {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

var itemRow = view.DefineWith("ItemRow", func(cx *view.Cx, it Item) *view.Node {
	return view.Box(
		view.Class("row"),
		view.Prop("low", it.Qty <= lowStock),
		view.Label(view.Text(it.Name)),
		view.Label(view.Textf("x%d", it.Qty)),
	)
})

var summary = view.Define("Summary", func(cx *view.Cx) *view.Node {
	inv, _ := view.UseContext[*inventory](cx, inventoryKey{})
	shown := len(inv.visible.Get())
	return view.Box(
		view.Class("summary"),
		view.Label(view.Textf("%d items, %d units", shown, inv.units.Get())),
		view.If(inv.filter.Get() != "", func() *view.Node {
			return view.Label(view.Textf("filter: %s", inv.filter.Get()))
		}),
	)
})

var detail = view.DefineWith("Detail", func(cx *view.Cx, id string) *view.Node {
	inv, _ := view.UseContext[*inventory](cx, inventoryKey{})
	it, ok := inv.find(id)
	if !ok {
		return view.Label(view.Textf("%s: gone", id))
	}
	return view.Box(
		view.Class("detail"),
		view.Label(view.Text(it.Name)),
		view.Label(view.Textf("%d in stock", it.Qty)),
		view.If(it.Qty <= lowStock, func() *view.Node {
			return view.Label(view.Class("warn"), view.Text("reorder"))
		}),
	)
})

// inventoryApp returns the root component of the demo UI.
func inventoryApp(inv *inventory) *view.Component {
	return view.Define("Inventory", func(cx *view.Cx) *view.Node {
		cx.Provide(inventoryKey{}, inv)
		sel := inv.selected.Get()
		return view.Box(
			view.Class("inventory"),
			summary.Bind(nil),
			view.ForEach(inv.visible.Get(),
				func(it Item) string { return it.ID },
				func(it Item, _ int) *view.Node { return itemRow.Bind(it) },
			),
			view.If(sel != "", func() *view.Node { return detail.Bind(sel) }),
		)
	})
}
