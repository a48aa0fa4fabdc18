package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	qerrors "github.com/vango-dev/quill/internal/errors"
)

// Scenario is a scripted sequence of inventory changes, one tick per step.
type Scenario struct {
	Name  string `yaml:"name"`
	Items []Item `yaml:"items"`
	Steps []Step `yaml:"steps"`
}

// Step is one change to the inventory. Exactly one action must be set.
type Step struct {
	Note   string  `yaml:"note,omitempty"`
	Set    *Item   `yaml:"set,omitempty"`
	Remove string  `yaml:"remove,omitempty"`
	Filter *string `yaml:"filter,omitempty"`
	Sort   string  `yaml:"sort,omitempty"`
	Select *string `yaml:"select,omitempty"`
}

// defaultScenario is replayed when no scenario file is given.
const defaultScenario = `
name: restock
items:
  - {id: apple, name: Apple, qty: 4}
  - {id: bread, name: Bread, qty: 1}
  - {id: cheese, name: Cheese, qty: 7}
steps:
  - note: select a row
    select: bread
  - note: restock the selection
    set: {id: bread, name: Bread, qty: 9}
  - note: reorder by quantity
    sort: qty
  - note: new item lands in order
    set: {id: dates, name: Dates, qty: 2}
  - note: narrow the list
    filter: a
  - note: drop the selection
    remove: bread
  - note: back to everything
    filter: ""
`

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, qerrors.New("Q200").Wrap(err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenario reads a scenario file. An empty path loads the built-in
// scenario.
func LoadScenario(path string) (*Scenario, error) {
	if path == "" {
		return ParseScenario([]byte(defaultScenario))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, qerrors.New("Q200").WithDetailf("Cannot read %s", path).Wrap(err)
	}
	return ParseScenario(data)
}

// Validate checks item IDs and that every step names one action.
func (sc *Scenario) Validate() error {
	seen := make(map[string]bool, len(sc.Items))
	for i, it := range sc.Items {
		if it.ID == "" {
			return qerrors.New("Q200").WithDetailf("items[%d] has no id", i)
		}
		if seen[it.ID] {
			return qerrors.New("Q200").WithDetailf("items[%d]: duplicate id %q", i, it.ID)
		}
		seen[it.ID] = true
	}
	for i, st := range sc.Steps {
		if n := st.actions(); n != 1 {
			return qerrors.New("Q200").WithDetailf("steps[%d] must set exactly one action, found %d", i, n)
		}
		if st.Set != nil && st.Set.ID == "" {
			return qerrors.New("Q200").WithDetailf("steps[%d].set has no id", i)
		}
		switch st.Sort {
		case "", SortByID, SortByName, SortByQty:
		default:
			return qerrors.New("Q200").WithDetailf("steps[%d].sort must be id, name or qty, got %q", i, st.Sort)
		}
	}
	return nil
}

func (st Step) actions() int {
	n := 0
	if st.Set != nil {
		n++
	}
	if st.Remove != "" {
		n++
	}
	if st.Filter != nil {
		n++
	}
	if st.Sort != "" {
		n++
	}
	if st.Select != nil {
		n++
	}
	return n
}

// Apply performs the step on inv.
func (st Step) Apply(inv *inventory) {
	switch {
	case st.Set != nil:
		inv.upsert(*st.Set)
	case st.Remove != "":
		inv.remove(st.Remove)
	case st.Filter != nil:
		inv.filter.Set(*st.Filter)
	case st.Sort != "":
		inv.sortBy.Set(st.Sort)
	case st.Select != nil:
		inv.selected.Set(*st.Select)
	}
}

// String describes the step for tick logs.
func (st Step) String() string {
	switch {
	case st.Set != nil:
		return fmt.Sprintf("set %s=%d", st.Set.ID, st.Set.Qty)
	case st.Remove != "":
		return "remove " + st.Remove
	case st.Filter != nil:
		return fmt.Sprintf("filter %q", *st.Filter)
	case st.Sort != "":
		return "sort " + st.Sort
	case st.Select != nil:
		return fmt.Sprintf("select %q", *st.Select)
	}
	return "noop"
}
