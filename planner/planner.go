package planner

import (
	"github.com/propstack/reconcilo/catalog"
	"github.com/propstack/reconcilo/introspect"
)

type ActionKind string

const (
	CreateEntity      ActionKind = "create_entity"
	CreateIndex       ActionKind = "create_index"
	EnableRowSecurity ActionKind = "enable_row_security"
	CreatePolicy      ActionKind = "create_policy"
)

// Action is one apply step. Every action carries create-if-missing
// semantics, so re-applying an already-applied action is a no-op.
type Action struct {
	Kind       ActionKind
	Target     string // name of the object being created
	EntityName string // owning entity
	Entity     *catalog.Entity
	Index      *catalog.Index
	Policy     *catalog.Policy
	Idempotent bool
}

// Plan is the ordered action sequence produced by one reconciliation
// request. It is a value owned by the caller: built fresh every time,
// never persisted, discarded after display or application.
type Plan struct {
	Actions []Action
}

func (p Plan) Empty() bool { return len(p.Actions) == 0 }

type Options struct {
	// EnforcePolicies adds row-security enablement and policy creation
	// to the plan. Off by default so a schema-only bootstrap never
	// locks a table down as a side effect.
	EnforcePolicies bool
}

// Build compares the declared catalogs against a live snapshot and
// returns the actions needed to close the gap. It is a pure function of
// its inputs: no backend access, no mutation of cat or live, identical
// inputs give identical output. Entity creation comes before index
// creation before policy work, and declaration order is kept within
// each band, so an action never targets an object a later action
// creates.
func Build(cat *catalog.Catalog, live *introspect.LiveState, opts Options) Plan {
	var plan Plan
	entities := cat.Entities()

	for i := range entities {
		e := entities[i]
		if live.Entities[e.Name] {
			continue
		}
		plan.Actions = append(plan.Actions, Action{
			Kind:       CreateEntity,
			Target:     e.Name,
			EntityName: e.Name,
			Entity:     &entities[i],
			Idempotent: true,
		})
	}

	for _, e := range entities {
		indexes := cat.IndexesFor(e.Name)
		for i := range indexes {
			idx := indexes[i]
			if live.Indexes[idx.Name] {
				continue
			}
			plan.Actions = append(plan.Actions, Action{
				Kind:       CreateIndex,
				Target:     idx.Name,
				EntityName: idx.Entity,
				Index:      &indexes[i],
				Idempotent: true,
			})
		}
	}

	if opts.EnforcePolicies {
		for _, e := range entities {
			policies := cat.PoliciesFor(e.Name)
			if len(policies) == 0 {
				continue
			}
			if !live.RowSecurity[e.Name] {
				plan.Actions = append(plan.Actions, Action{
					Kind:       EnableRowSecurity,
					Target:     e.Name,
					EntityName: e.Name,
					Idempotent: true,
				})
			}
			for i := range policies {
				p := policies[i]
				key := introspect.PolicyKey{Entity: p.Entity, Operation: p.Operation}
				if live.Policies[key] {
					continue
				}
				plan.Actions = append(plan.Actions, Action{
					Kind:       CreatePolicy,
					Target:     p.PolicyName(),
					EntityName: p.Entity,
					Policy:     &policies[i],
					Idempotent: true,
				})
			}
		}
	}

	return plan
}
