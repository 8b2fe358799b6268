package tilegemm

import (
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Catalog is an insertion-ordered arena of instances indexed by key. It is
// populated once, sealed, and read concurrently afterwards.
type Catalog struct {
	mu        sync.RWMutex
	instances []*Instance
	byKey     map[Key][]int
	bySig     map[signature]int
	sealed    bool
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		byKey: make(map[Key][]int),
		bySig: make(map[signature]int),
	}
}

// Register appends inst and returns its arena index. Registering the same
// signature twice, or registering into a sealed catalog, is an error.
func (c *Catalog) Register(inst *Instance) (int, error) {
	if inst == nil {
		return -1, NewPlanError("Register", "nil instance")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return -1, &Error{Kind: KindCatalogSealed, Op: "Register",
			Message: "cannot register " + inst.Name() + " after Seal"}
	}
	sig := inst.signature()
	if prev, ok := c.bySig[sig]; ok {
		return -1, &Error{Kind: KindDuplicateInstance, Op: "Register",
			Message: "instance " + inst.Name() + " already registered", Context: prev}
	}

	idx := len(c.instances)
	c.instances = append(c.instances, inst)
	c.bySig[sig] = idx
	key := inst.Key()
	c.byKey[key] = append(c.byKey[key], idx)

	Logger().WithFields(logrus.Fields{
		"index":    idx,
		"instance": inst.Name(),
		"core":     inst.Core(),
	}).Debug("registered instance")
	return idx, nil
}

// MustRegister is Register for static instance tables, where a failure is
// a defect in the table
func (c *Catalog) MustRegister(inst *Instance) int {
	idx, err := c.Register(inst)
	if err != nil {
		panic(err)
	}
	return idx
}

// Seal makes the catalog read-only
func (c *Catalog) Seal() {
	c.mu.Lock()
	c.sealed = true
	c.mu.Unlock()
}

// Sealed reports whether Seal has been called
func (c *Catalog) Sealed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sealed
}

// Len is the number of registered instances
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.instances)
}

// At returns the instance at arena index i
func (c *Catalog) At(i int) *Instance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.instances) {
		return nil
	}
	return c.instances[i]
}

// All returns every instance in registration order
func (c *Catalog) All() []*Instance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Instance(nil), c.instances...)
}

// List returns the instances registered under key, in registration order
func (c *Catalog) List(key Key) []*Instance {
	return lo.Map(c.candidates(key), func(cand Candidate, _ int) *Instance {
		return cand.Instance
	})
}

// ListInstances returns the instances for an operation kind, element types
// and layouts, in registration order
func (c *Catalog) ListInstances(op OpKind, types TypeSet, layouts LayoutSet) []*Instance {
	return c.List(KeyOf(op, types, layouts))
}

// Lookup finds an instance by name
func (c *Catalog) Lookup(name string) (*Instance, int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inst, idx, ok := lo.FindIndexOf(c.instances, func(i *Instance) bool {
		return i.Name() == name
	})
	return inst, idx, ok
}

// Keys returns every key with at least one instance, in order of first
// registration
func (c *Catalog) Keys() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Uniq(lo.Map(c.instances, func(i *Instance, _ int) Key {
		return i.Key()
	}))
}

func (c *Catalog) candidates(key Key) []Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Map(c.byKey[key], func(idx int, _ int) Candidate {
		return Candidate{Index: idx, Instance: c.instances[idx]}
	})
}
