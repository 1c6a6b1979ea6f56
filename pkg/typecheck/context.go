package typecheck

import (
	"github.com/leapstack-labs/squint/pkg/schema"
)

// InferenceContext owns the type variables of a single statement check.
// Variables are keyed by integer id; bindings are append-only and form a
// forest resolved by chasing.
type InferenceContext struct {
	nextID   int
	bindings map[int]InferredType
	params   map[string]*VariableType // bind-parameter name -> variable
}

// NewInferenceContext creates an empty context.
func NewInferenceContext() *InferenceContext {
	return &InferenceContext{
		bindings: make(map[int]InferredType),
		params:   make(map[string]*VariableType),
	}
}

// AnonymousVariable allocates a fresh unbound variable.
func (c *InferenceContext) AnonymousVariable() InferredType {
	v := &VariableType{ID: c.nextID}
	c.nextID++
	return v
}

// Variable returns the variable for a bind-parameter name. The same name
// yields the same variable for the lifetime of the context.
func (c *InferenceContext) Variable(name string) InferredType {
	key := schema.Normalize(name)
	if v, ok := c.params[key]; ok {
		return v
	}
	v := &VariableType{ID: c.nextID}
	c.nextID++
	c.params[key] = v
	return v
}

// Parameters returns the bind-parameter names seen so far with their
// concretized types.
func (c *InferenceContext) Parameters() map[string]schema.ColumnType {
	out := make(map[string]schema.ColumnType, len(c.params))
	for name, v := range c.params {
		out[name] = c.Concrete(v)
	}
	return out
}

// chase follows variable bindings until it reaches an unbound variable or a
// non-variable type. It returns the final type and the id of the last bound
// variable followed (-1 when none), which is the binding to update after a
// refinement.
func (c *InferenceContext) chase(t InferredType) (InferredType, int) {
	last := -1
	for {
		v, ok := t.(*VariableType)
		if !ok {
			return t, last
		}
		bound, isBound := c.bindings[v.ID]
		if !isBound {
			return t, last
		}
		last = v.ID
		t = bound
	}
}

// occurs reports whether variable id is reachable from t through bindings
// or Dependent parents.
func (c *InferenceContext) occurs(id int, t InferredType) bool {
	switch tt := t.(type) {
	case *VariableType:
		r, _ := c.chase(tt)
		if v, ok := r.(*VariableType); ok {
			return v.ID == id
		}
		return c.occurs(id, r)
	case *DependentType:
		return c.occurs(id, tt.Parent)
	}
	return false
}

// bind records a variable binding. Binding a variable to a Dependent that
// hangs off the variable itself would loop on concretion, so that case
// collapses to the Dependent's base with nullability left open.
func (c *InferenceContext) bind(id int, t InferredType) {
	if c.occurs(id, t) {
		if d, ok := t.(*DependentType); ok {
			c.bindings[id] = &OneOfType{Choices: []schema.ColumnType{
				{Nullable: true, Base: d.Base},
				{Nullable: false, Base: d.Base},
			}}
		}
		return
	}
	c.bindings[id] = t
}

// Unify computes the most general type refining both a and b, binding
// variables along the way. It fails with a conflictError when the types
// cannot be reconciled.
func (c *InferenceContext) Unify(a, b InferredType) (InferredType, error) {
	ra, va := c.chase(a)
	rb, vb := c.chase(b)

	av, aUnbound := ra.(*VariableType)
	bv, bUnbound := rb.(*VariableType)
	switch {
	case aUnbound && bUnbound:
		if av.ID != bv.ID {
			c.bind(av.ID, rb)
		}
		return rb, nil
	case aUnbound:
		c.bind(av.ID, rb)
		return ra, nil
	case bUnbound:
		c.bind(bv.ID, ra)
		return rb, nil
	}

	res, err := c.unifyGround(ra, rb)
	if err != nil {
		return nil, err
	}
	if vb >= 0 {
		c.bindings[vb] = res
	}
	if va >= 0 {
		c.bindings[va] = res
		return &VariableType{ID: va}, nil
	}
	if vb >= 0 {
		return &VariableType{ID: vb}, nil
	}
	return res, nil
}

// unifyGround unifies two types that are neither variables nor bound.
func (c *InferenceContext) unifyGround(a, b InferredType) (InferredType, error) {
	if ad, ok := a.(*DependentType); ok {
		return c.unifyDependent(ad, b)
	}
	if bd, ok := b.(*DependentType); ok {
		return c.unifyDependent(bd, a)
	}

	switch at := a.(type) {
	case *ConcreteType:
		switch bt := b.(type) {
		case *ConcreteType:
			m, ok := columnMeet(at.Type, bt.Type)
			if !ok {
				return nil, &conflictError{left: at.describe(), right: bt.describe()}
			}
			return &ConcreteType{Type: m}, nil
		case *OneOfType:
			return refineChoices(bt.Choices, []schema.ColumnType{at.Type}, a, b)
		}
	case *OneOfType:
		switch bt := b.(type) {
		case *ConcreteType:
			return refineChoices(at.Choices, []schema.ColumnType{bt.Type}, a, b)
		case *OneOfType:
			return refineChoices(at.Choices, bt.Choices, a, b)
		}
	}
	return nil, &conflictError{left: a.describe(), right: b.describe()}
}

// refineChoices filters a constraint set against another set of concretes,
// keeping the meets of compatible pairs in first-occurrence order.
func refineChoices(s, t []schema.ColumnType, a, b InferredType) (InferredType, error) {
	var out []schema.ColumnType
	seen := make(map[schema.ColumnType]bool)
	for _, m1 := range s {
		for _, m2 := range t {
			if m, ok := columnMeet(m1, m2); ok && !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	switch len(out) {
	case 0:
		return nil, &conflictError{left: a.describe(), right: b.describe()}
	case 1:
		return &ConcreteType{Type: out[0]}, nil
	default:
		return &OneOfType{Choices: out}, nil
	}
}

// unifyDependent unifies a Dependent with another ground type.
func (c *InferenceContext) unifyDependent(d *DependentType, other InferredType) (InferredType, error) {
	switch o := other.(type) {
	case *DependentType:
		base, ok := baseMeet(d.Base, o.Base)
		if !ok {
			return nil, &conflictError{left: d.describe(), right: o.describe()}
		}
		// Both parents contribute nullability. Keep the left parent live and
		// force nullable when the right side already is.
		parent := d.Parent
		if c.Concrete(o.Parent).Nullable {
			parent = concrete(true, schema.Any)
		}
		return &DependentType{Parent: parent, Base: base}, nil

	case *ConcreteType:
		base, ok := baseMeet(d.Base, o.Type.Base)
		if !ok {
			return nil, &conflictError{left: d.describe(), right: o.describe()}
		}
		parent, err := c.Unify(d.Parent, concrete(o.Type.Nullable, schema.Any))
		if err != nil {
			return nil, err
		}
		return &DependentType{Parent: parent, Base: base}, nil

	case *OneOfType:
		var out []schema.ColumnType
		seen := make(map[schema.ColumnType]bool)
		sameBase := true
		for _, ch := range o.Choices {
			mb, ok := baseMeet(d.Base, ch.Base)
			if !ok {
				continue
			}
			m := schema.ColumnType{Nullable: ch.Nullable, Base: mb}
			if !seen[m] {
				seen[m] = true
				if len(out) > 0 && out[0].Base != mb {
					sameBase = false
				}
				out = append(out, m)
			}
		}
		if len(out) == 0 {
			return nil, &conflictError{left: d.describe(), right: o.describe()}
		}
		if sameBase {
			return &DependentType{Parent: d.Parent, Base: out[0].Base}, nil
		}
		return &OneOfType{Choices: out}, nil
	}
	return nil, &conflictError{left: d.describe(), right: other.describe()}
}

// UnifyBase imposes a base-type constraint on t without changing its
// nullability.
func (c *InferenceContext) UnifyBase(t InferredType, base schema.BaseType) (InferredType, error) {
	r, v := c.chase(t)
	switch rt := r.(type) {
	case *VariableType:
		c.bind(rt.ID, &OneOfType{Choices: []schema.ColumnType{
			{Nullable: true, Base: base},
			{Nullable: false, Base: base},
		}})
		return r, nil
	case *ConcreteType:
		mb, ok := baseMeet(rt.Type.Base, base)
		if !ok {
			return nil, &conflictError{left: rt.describe(), right: base.String()}
		}
		res := &ConcreteType{Type: schema.ColumnType{Nullable: rt.Type.Nullable, Base: mb}}
		if v >= 0 {
			c.bindings[v] = res
			return &VariableType{ID: v}, nil
		}
		return res, nil
	case *OneOfType:
		var out []schema.ColumnType
		seen := make(map[schema.ColumnType]bool)
		for _, ch := range rt.Choices {
			if mb, ok := baseMeet(ch.Base, base); ok {
				m := schema.ColumnType{Nullable: ch.Nullable, Base: mb}
				if !seen[m] {
					seen[m] = true
					out = append(out, m)
				}
			}
		}
		if len(out) == 0 {
			return nil, &conflictError{left: rt.describe(), right: base.String()}
		}
		var res InferredType
		if len(out) == 1 {
			res = &ConcreteType{Type: out[0]}
		} else {
			res = &OneOfType{Choices: out}
		}
		if v >= 0 {
			c.bindings[v] = res
			return &VariableType{ID: v}, nil
		}
		return res, nil
	case *DependentType:
		mb, ok := baseMeet(rt.Base, base)
		if !ok {
			return nil, &conflictError{left: rt.describe(), right: base.String()}
		}
		res := &DependentType{Parent: rt.Parent, Base: mb}
		if v >= 0 {
			c.bindings[v] = res
			return &VariableType{ID: v}, nil
		}
		return res, nil
	}
	return nil, &conflictError{left: r.describe(), right: base.String()}
}

// UnifyAll left-folds Unify over the given types with seed Any.
func (c *InferenceContext) UnifyAll(types ...InferredType) (InferredType, error) {
	acc := anyType()
	for _, t := range types {
		u, err := c.Unify(acc, t)
		if err != nil {
			return nil, err
		}
		acc = u
	}
	return acc, nil
}

// Concrete resolves an inferred type to a concrete column type. Unbound
// variables default to nullable Any; a constraint set defaults to its first
// choice; a Dependent takes its parent's nullability.
func (c *InferenceContext) Concrete(t InferredType) schema.ColumnType {
	r, _ := c.chase(t)
	switch rt := r.(type) {
	case *ConcreteType:
		return rt.Type
	case *OneOfType:
		return rt.Choices[0]
	case *DependentType:
		parent := c.Concrete(rt.Parent)
		return schema.ColumnType{Nullable: parent.Nullable, Base: rt.Base}
	}
	return schema.ColumnType{Nullable: true, Base: schema.Any}
}
