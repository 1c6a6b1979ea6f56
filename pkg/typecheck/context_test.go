package typecheck

import (
	"testing"

	"github.com/leapstack-labs/squint/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifyConcretes(t *testing.T) {
	tests := []struct {
		name    string
		a, b    schema.ColumnType
		want    schema.ColumnType
		wantErr bool
	}{
		{
			name: "equal leaves",
			a:    schema.ColumnType{Base: schema.Integer},
			b:    schema.ColumnType{Base: schema.Integer},
			want: schema.ColumnType{Base: schema.Integer},
		},
		{
			name: "nullability is monotone",
			a:    schema.ColumnType{Nullable: true, Base: schema.Text},
			b:    schema.ColumnType{Nullable: false, Base: schema.Text},
			want: schema.ColumnType{Nullable: true, Base: schema.Text},
		},
		{
			name: "any is top",
			a:    schema.ColumnType{Base: schema.Any},
			b:    schema.ColumnType{Base: schema.Blob},
			want: schema.ColumnType{Base: schema.Blob},
		},
		{
			name: "number refines to integer",
			a:    schema.ColumnType{Base: schema.Number},
			b:    schema.ColumnType{Base: schema.Integer},
			want: schema.ColumnType{Base: schema.Integer},
		},
		{
			name: "number refines to float",
			a:    schema.ColumnType{Base: schema.Number},
			b:    schema.ColumnType{Base: schema.Float},
			want: schema.ColumnType{Base: schema.Float},
		},
		{
			name:    "distinct leaves conflict",
			a:       schema.ColumnType{Base: schema.Text},
			b:       schema.ColumnType{Base: schema.Integer},
			wantErr: true,
		},
		{
			name:    "integer and float conflict",
			a:       schema.ColumnType{Base: schema.Integer},
			b:       schema.ColumnType{Base: schema.Float},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewInferenceContext()
			got, err := ctx.Unify(&ConcreteType{Type: tt.a}, &ConcreteType{Type: tt.b})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ctx.Concrete(got))
		})
	}
}

func TestUnifyIdempotence(t *testing.T) {
	ctx := NewInferenceContext()
	a := concrete(true, schema.Integer)

	u, err := ctx.Unify(a, a)
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Integer}, ctx.Concrete(u))

	// unify(unify(a, b), b) == unify(a, b)
	b := concrete(false, schema.Number)
	ab, err := ctx.Unify(a, b)
	require.NoError(t, err)
	abb, err := ctx.Unify(ab, b)
	require.NoError(t, err)
	assert.Equal(t, ctx.Concrete(ab), ctx.Concrete(abb))
}

func TestUnifyVariableBinding(t *testing.T) {
	ctx := NewInferenceContext()
	v := ctx.AnonymousVariable()

	u, err := ctx.Unify(v, concrete(false, schema.Text))
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Base: schema.Text}, ctx.Concrete(u))
	// The variable itself resolves through its binding.
	assert.Equal(t, schema.ColumnType{Base: schema.Text}, ctx.Concrete(v))

	// Refining the returned type refines the variable.
	_, err = ctx.Unify(u, concrete(true, schema.Text))
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Text}, ctx.Concrete(v))
}

func TestUnifyVariableConflict(t *testing.T) {
	ctx := NewInferenceContext()
	v := ctx.AnonymousVariable()

	_, err := ctx.Unify(v, concrete(false, schema.Text))
	require.NoError(t, err)
	_, err = ctx.Unify(v, concrete(false, schema.Integer))
	require.Error(t, err)
}

func TestBindParameterVariablesAreKeyed(t *testing.T) {
	ctx := NewInferenceContext()
	a := ctx.Variable(":x")
	b := ctx.Variable(":x")
	c := ctx.Variable(":y")

	_, err := ctx.Unify(a, concrete(false, schema.Integer))
	require.NoError(t, err)

	// Same name, same variable.
	assert.Equal(t, schema.ColumnType{Base: schema.Integer}, ctx.Concrete(b))
	// Different name stays unbound and defaults to nullable Any.
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Any}, ctx.Concrete(c))
}

func TestUnbindVariableDefaults(t *testing.T) {
	ctx := NewInferenceContext()
	v := ctx.AnonymousVariable()
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Any}, ctx.Concrete(v))
}

func TestOneOfFiltering(t *testing.T) {
	ctx := NewInferenceContext()

	// The Number family accepts a nullable Float and collapses to it.
	u, err := ctx.Unify(numberType(), concrete(true, schema.Float))
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Float}, ctx.Concrete(u))

	// It rejects TEXT outright.
	_, err = ctx.Unify(numberType(), concrete(false, schema.Text))
	require.Error(t, err)
}

func TestUnifyAllSeedsAny(t *testing.T) {
	ctx := NewInferenceContext()

	u, err := ctx.UnifyAll(concrete(false, schema.Text), concrete(true, schema.Text))
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Text}, ctx.Concrete(u))

	// Empty fold yields the Any shorthand, defaulting not-nullable Any.
	u, err = ctx.UnifyAll()
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Base: schema.Any}, ctx.Concrete(u))
}

func TestUnifyBaseKeepsNullability(t *testing.T) {
	ctx := NewInferenceContext()

	u, err := ctx.UnifyBase(concrete(false, schema.Any), schema.Integer)
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Base: schema.Integer}, ctx.Concrete(u))

	u, err = ctx.UnifyBase(concrete(true, schema.Number), schema.Float)
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Float}, ctx.Concrete(u))

	_, err = ctx.UnifyBase(concrete(false, schema.Text), schema.Boolean)
	require.Error(t, err)
}

func TestUnifyBaseOnVariableLeavesNullabilityOpen(t *testing.T) {
	ctx := NewInferenceContext()
	v := ctx.AnonymousVariable()

	_, err := ctx.UnifyBase(v, schema.Integer)
	require.NoError(t, err)
	got := ctx.Concrete(v)
	assert.Equal(t, schema.Integer, got.Base)
	assert.True(t, got.Nullable)

	// A later constraint of the same base still unifies.
	_, err = ctx.Unify(v, concrete(false, schema.Integer))
	require.NoError(t, err)
	assert.Equal(t, schema.Integer, ctx.Concrete(v).Base)

	// A conflicting base does not.
	_, err = ctx.Unify(v, concrete(false, schema.Text))
	require.Error(t, err)
}

func TestDependentInheritsNullability(t *testing.T) {
	ctx := NewInferenceContext()

	d := &DependentType{Parent: concrete(true, schema.Integer), Base: schema.Boolean}
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Boolean}, ctx.Concrete(d))

	d = &DependentType{Parent: concrete(false, schema.Integer), Base: schema.Boolean}
	assert.Equal(t, schema.ColumnType{Base: schema.Boolean}, ctx.Concrete(d))
}

func TestDependentUnifiesWithFamily(t *testing.T) {
	ctx := NewInferenceContext()

	d := &DependentType{Parent: concrete(false, schema.Integer), Base: schema.Boolean}
	u, err := ctx.Unify(booleanType(), d)
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Base: schema.Boolean}, ctx.Concrete(u))

	_, err = ctx.Unify(integerType(), d)
	require.Error(t, err)
}
