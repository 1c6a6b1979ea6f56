package typecheck

import (
	"testing"

	"github.com/leapstack-labs/squint/pkg/parser"
	"github.com/leapstack-labs/squint/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testModel builds the catalog used throughout these tests:
//
//	users(id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL, email TEXT)
//	orders(id INTEGER PRIMARY KEY NOT NULL, user_id INTEGER NOT NULL, amount REAL)
func testModel() schema.Model {
	return schema.NewMapModel([]*schema.Table{
		{
			Name: "users",
			Columns: []schema.Column{
				{Name: "id", Type: schema.ColumnType{Base: schema.Integer}, PrimaryKey: true},
				{Name: "name", Type: schema.ColumnType{Base: schema.Text}},
				{Name: "email", Type: schema.ColumnType{Nullable: true, Base: schema.Text}},
			},
		},
		{
			Name: "orders",
			Columns: []schema.Column{
				{Name: "id", Type: schema.ColumnType{Base: schema.Integer}, PrimaryKey: true},
				{Name: "user_id", Type: schema.ColumnType{Base: schema.Integer}},
				{Name: "amount", Type: schema.ColumnType{Nullable: true, Base: schema.Float}},
			},
		},
	})
}

// checkSQL parses and checks one statement.
func checkSQL(t *testing.T, sql string) (*Checker, []ColumnDescription, error) {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err, "parse %q", sql)
	c := NewChecker(testModel())
	q, err := c.CheckStatement(stmt)
	if err != nil {
		return c, nil, err
	}
	return c, c.Describe(q), nil
}

// requireKind asserts a failed check with the given error kind.
func requireKind(t *testing.T, sql string, kind Kind) {
	t.Helper()
	_, _, err := checkSQL(t, sql)
	require.Error(t, err, "expected %s for %q", kind, sql)
	var ce *Error
	require.ErrorAs(t, err, &ce, "error for %q is not positioned", sql)
	assert.Equal(t, kind, ce.Kind, "wrong kind for %q: %s", sql, err)
	assert.True(t, ce.Span.IsValid(), "error for %q has no span", sql)
}

func TestSimpleSelect(t *testing.T) {
	_, cols, err := checkSQL(t, "SELECT id, name FROM users")
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, ColumnDescription{
		Name:       "id",
		FromAlias:  "users",
		Type:       schema.ColumnType{Base: schema.Integer},
		PrimaryKey: true,
	}, cols[0])
	assert.Equal(t, ColumnDescription{
		Name:      "name",
		FromAlias: "users",
		Type:      schema.ColumnType{Base: schema.Text},
	}, cols[1])
}

func TestJoinWithOnConstraint(t *testing.T) {
	c, cols, err := checkSQL(t,
		"SELECT u.name, o.amount FROM users u JOIN orders o ON o.user_id = u.id")
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, "name", cols[0].Name)
	assert.Equal(t, "u", cols[0].FromAlias)
	assert.Equal(t, schema.ColumnType{Base: schema.Text}, cols[0].Type)

	assert.Equal(t, "amount", cols[1].Name)
	assert.Equal(t, "o", cols[1].FromAlias)
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Float}, cols[1].Type)

	refs := c.References()
	require.Len(t, refs, 2)
	assert.Equal(t, "users", refs[0].Name)
	assert.Equal(t, "orders", refs[1].Name)
}

func TestNaturalJoinWithoutCommonColumnsByType(t *testing.T) {
	// users and orders share the column name "id", so this one passes.
	_, _, err := checkSQL(t, "SELECT * FROM users NATURAL JOIN orders")
	require.NoError(t, err)

	// A derived table with disjoint column names does not.
	requireKind(t,
		"SELECT * FROM users NATURAL JOIN (SELECT user_id AS uid FROM orders) o",
		KindStructural)
}

func TestNaturalJoinWithExplicitConstraint(t *testing.T) {
	requireKind(t, "SELECT * FROM users NATURAL JOIN orders ON users.id = orders.id", KindStructural)
	requireKind(t, "SELECT * FROM users NATURAL JOIN orders USING (id)", KindStructural)
}

func TestJoinUsing(t *testing.T) {
	_, cols, err := checkSQL(t, "SELECT u.name FROM users u JOIN orders o USING (id)")
	require.NoError(t, err)
	assert.Len(t, cols, 1)

	requireKind(t, "SELECT u.name FROM users u JOIN orders o USING (email)", KindNotFound)
}

func TestExpressionColumnRequiresAlias(t *testing.T) {
	requireKind(t, "SELECT count(*) FROM users", KindStructural)

	_, cols, err := checkSQL(t, "SELECT count(*) AS n FROM users")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, ColumnDescription{
		Name: "n",
		Type: schema.ColumnType{Base: schema.Integer},
	}, cols[0])
}

func TestWhereTypeConflict(t *testing.T) {
	requireKind(t, "SELECT id FROM users WHERE name + 1 > 0", KindTypeConflict)
}

func TestWhereMustBeBoolean(t *testing.T) {
	requireKind(t, "SELECT id FROM users WHERE name", KindTypeConflict)

	_, _, err := checkSQL(t, "SELECT id FROM users WHERE id = 1 AND name = 'bob'")
	require.NoError(t, err)
}

func TestCTEVisibleInBody(t *testing.T) {
	_, cols, err := checkSQL(t, "WITH t(a) AS (SELECT id FROM users) SELECT a FROM t")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "a", cols[0].Name)
	assert.Equal(t, schema.ColumnType{Base: schema.Integer}, cols[0].Type)
}

func TestLaterCTESeesEarlierCTE(t *testing.T) {
	_, cols, err := checkSQL(t,
		"WITH a AS (SELECT id FROM users), b AS (SELECT id FROM a) SELECT id FROM b")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, schema.ColumnType{Base: schema.Integer}, cols[0].Type)
}

func TestCTERenameArity(t *testing.T) {
	requireKind(t, "WITH t(a, b) AS (SELECT id FROM users) SELECT a FROM t", KindArity)
}

func TestWildcardFidelity(t *testing.T) {
	_, cols, err := checkSQL(t, "SELECT * FROM users")
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "name", cols[1].Name)
	assert.Equal(t, "email", cols[2].Name)
	assert.Equal(t, schema.ColumnType{Base: schema.Integer}, cols[0].Type)
	assert.Equal(t, schema.ColumnType{Base: schema.Text}, cols[1].Type)
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Text}, cols[2].Type)
	assert.True(t, cols[0].PrimaryKey)
}

func TestTableWildcard(t *testing.T) {
	_, cols, err := checkSQL(t, "SELECT u.* FROM users u JOIN orders o ON o.user_id = u.id")
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, "u", cols[0].FromAlias)
}

func TestWildcardRequiresFrom(t *testing.T) {
	requireKind(t, "SELECT *", KindStructural)
}

func TestAmbiguousColumn(t *testing.T) {
	requireKind(t, "SELECT id FROM users, orders", KindAmbiguous)
}

func TestUnknownNames(t *testing.T) {
	requireKind(t, "SELECT nope FROM users", KindNotFound)
	requireKind(t, "SELECT id FROM missing", KindNotFound)
	requireKind(t, "SELECT x.id FROM users u", KindNotFound)
	requireKind(t, "SELECT nosuch(id) AS x FROM users", KindNotFound)
}

func TestDuplicateBinding(t *testing.T) {
	requireKind(t, "SELECT 1 AS x FROM users, users", KindStructural)
}

func TestTableValuedInvocationRejected(t *testing.T) {
	requireKind(t, "SELECT * FROM users(1)", KindUnsupported)
}

func TestCompoundQueries(t *testing.T) {
	_, cols, err := checkSQL(t, "SELECT id FROM users UNION SELECT user_id FROM orders")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, schema.ColumnType{Base: schema.Integer}, cols[0].Type)

	// Nullability is the disjunction of both sides.
	_, cols, err = checkSQL(t, "SELECT name FROM users UNION SELECT email FROM users")
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Text}, cols[0].Type)

	requireKind(t, "SELECT id, name FROM users UNION SELECT id FROM users", KindArity)
	requireKind(t, "SELECT name FROM users INTERSECT SELECT id FROM users", KindTypeConflict)
}

func TestValues(t *testing.T) {
	_, cols, err := checkSQL(t, "VALUES (1, 'a'), (2, 'b')")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Empty(t, cols[0].Name)
	assert.Empty(t, cols[0].FromAlias)
	assert.False(t, cols[0].PrimaryKey)
	assert.Equal(t, schema.ColumnType{Base: schema.Integer}, cols[0].Type)
	assert.Equal(t, schema.ColumnType{Base: schema.Text}, cols[1].Type)

	requireKind(t, "VALUES (1), (2, 3)", KindArity)
	requireKind(t, "VALUES (1), ('x')", KindTypeConflict)
}

func TestValuesUnionSelect(t *testing.T) {
	_, cols, err := checkSQL(t, "SELECT id FROM users UNION VALUES (42)")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, schema.ColumnType{Base: schema.Integer}, cols[0].Type)
}

func TestScalarSubquery(t *testing.T) {
	_, cols, err := checkSQL(t,
		"SELECT (SELECT amount FROM orders) AS first_amount FROM users")
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Float}, cols[0].Type)

	requireKind(t, "SELECT (SELECT id, name FROM users) AS x FROM users", KindArity)
}

func TestCorrelatedSubquery(t *testing.T) {
	_, _, err := checkSQL(t,
		"SELECT name FROM users u WHERE EXISTS (SELECT 1 AS one FROM orders o WHERE o.user_id = u.id)")
	require.NoError(t, err)
}

func TestInForms(t *testing.T) {
	_, _, err := checkSQL(t, "SELECT name FROM users WHERE id IN (1, 2, 3)")
	require.NoError(t, err)

	_, _, err = checkSQL(t, "SELECT name FROM users WHERE id IN (SELECT user_id FROM orders)")
	require.NoError(t, err)

	requireKind(t, "SELECT name FROM users WHERE id IN ('a')", KindTypeConflict)
	requireKind(t, "SELECT name FROM users WHERE id IN (SELECT id, user_id FROM orders)", KindArity)
	requireKind(t, "SELECT name FROM users WHERE id IN orders", KindArity)
}

func TestBetween(t *testing.T) {
	_, _, err := checkSQL(t, "SELECT name FROM users WHERE id BETWEEN 1 AND 10")
	require.NoError(t, err)

	requireKind(t, "SELECT name FROM users WHERE id BETWEEN 'a' AND 'z'", KindTypeConflict)
}

func TestLike(t *testing.T) {
	_, _, err := checkSQL(t, "SELECT name FROM users WHERE name LIKE 'a%' ESCAPE '\\'")
	require.NoError(t, err)

	requireKind(t, "SELECT name FROM users WHERE id LIKE 'a%'", KindTypeConflict)
}

func TestCaseExpressions(t *testing.T) {
	_, cols, err := checkSQL(t,
		"SELECT CASE WHEN id = 1 THEN 'one' ELSE 'many' END AS label FROM users")
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Base: schema.Text}, cols[0].Type)

	// Without ELSE the output is forced nullable.
	_, cols, err = checkSQL(t,
		"SELECT CASE WHEN id = 1 THEN 'one' END AS label FROM users")
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Text}, cols[0].Type)

	// Input form unifies the keys with the input.
	_, _, err = checkSQL(t,
		"SELECT CASE id WHEN 1 THEN 'one' ELSE 'many' END AS label FROM users")
	require.NoError(t, err)

	requireKind(t,
		"SELECT CASE id WHEN 'x' THEN 'one' END AS label FROM users", KindTypeConflict)
	requireKind(t,
		"SELECT CASE WHEN id THEN 'one' END AS label FROM users", KindTypeConflict)
}

func TestCastInheritsNullability(t *testing.T) {
	_, cols, err := checkSQL(t, "SELECT CAST(email AS INTEGER) AS n FROM users")
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Integer}, cols[0].Type)

	_, cols, err = checkSQL(t, "SELECT CAST(name AS INTEGER) AS n FROM users")
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Base: schema.Integer}, cols[0].Type)
}

func TestIsNullYieldsNonNullBoolean(t *testing.T) {
	_, cols, err := checkSQL(t, "SELECT email IS NULL AS missing FROM users")
	require.NoError(t, err)
	assert.Equal(t, schema.ColumnType{Base: schema.Boolean}, cols[0].Type)
}

func TestFunctionTyping(t *testing.T) {
	// coalesce is polymorphic per invocation.
	_, cols, err := checkSQL(t, "SELECT coalesce(email, 'none') AS e FROM users")
	require.NoError(t, err)
	assert.Equal(t, schema.Text, cols[0].Type.Base)

	_, cols, err = checkSQL(t, "SELECT max(amount) AS top FROM orders")
	require.NoError(t, err)
	assert.Equal(t, schema.Float, cols[0].Type.Base)

	requireKind(t, "SELECT length(*) AS n FROM users", KindStructural)
	requireKind(t, "SELECT length(DISTINCT name) AS n FROM users", KindStructural)
	requireKind(t, "SELECT substr(name) AS s FROM users", KindArity)
	requireKind(t, "SELECT length(name, 'x') AS n FROM users", KindArity)
	requireKind(t, "SELECT length(id) AS n FROM users", KindTypeConflict)
}

func TestGroupByAndHaving(t *testing.T) {
	_, _, err := checkSQL(t,
		"SELECT user_id, count(*) AS n FROM orders GROUP BY user_id HAVING count(*) > 1")
	require.NoError(t, err)

	requireKind(t,
		"SELECT user_id, count(*) AS n FROM orders GROUP BY user_id HAVING name",
		KindNotFound)
}

func TestOrderByUsesInnerScope(t *testing.T) {
	_, _, err := checkSQL(t, "SELECT name FROM users ORDER BY email DESC")
	require.NoError(t, err)

	requireKind(t, "SELECT name FROM users ORDER BY nope", KindNotFound)
}

func TestLimitAndOffset(t *testing.T) {
	_, _, err := checkSQL(t, "SELECT name FROM users LIMIT 10 OFFSET 5")
	require.NoError(t, err)

	requireKind(t, "SELECT name FROM users LIMIT 'x'", KindTypeConflict)
	// LIMIT is typed in the outer scope; the select's columns are not
	// visible there.
	requireKind(t, "SELECT name FROM users LIMIT id", KindNotFound)
}

func TestBindParameters(t *testing.T) {
	c, _, err := checkSQL(t, "SELECT name FROM users WHERE id = :uid AND email = :mail")
	require.NoError(t, err)

	params := c.Context().Parameters()
	assert.Equal(t, schema.ColumnType{Base: schema.Integer}, params[":uid"])
	assert.Equal(t, schema.ColumnType{Nullable: true, Base: schema.Text}, params[":mail"])
}

func TestDerivedTable(t *testing.T) {
	_, cols, err := checkSQL(t,
		"SELECT t.uid FROM (SELECT user_id AS uid FROM orders) t")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "uid", cols[0].Name)
	assert.Equal(t, schema.ColumnType{Base: schema.Integer}, cols[0].Type)
}

func TestInsert(t *testing.T) {
	c, _, err := checkSQL(t, "INSERT INTO users (id, name) VALUES (1, 'bob')")
	require.NoError(t, err)
	require.Len(t, c.Writes(), 1)
	assert.Equal(t, "users", c.Writes()[0].Name)

	_, _, err = checkSQL(t, "INSERT INTO users (id, name, email) SELECT id, name, email FROM users")
	require.NoError(t, err)

	requireKind(t, "INSERT INTO users VALUES (1, 'bob')", KindArity)
	requireKind(t, "INSERT INTO users (id) VALUES ('x')", KindTypeConflict)
	requireKind(t, "INSERT INTO users (nope) VALUES (1)", KindNotFound)
	requireKind(t, "INSERT INTO missing (id) VALUES (1)", KindNotFound)
}

func TestUpdate(t *testing.T) {
	c, _, err := checkSQL(t, "UPDATE users SET name = 'bob' WHERE id = 1")
	require.NoError(t, err)
	require.Len(t, c.Writes(), 1)
	assert.Equal(t, "users", c.Writes()[0].Name)

	requireKind(t, "UPDATE users SET name = 1 WHERE id = 1", KindTypeConflict)
	requireKind(t, "UPDATE users SET nope = 1", KindNotFound)
	requireKind(t, "UPDATE users SET name = 'x' WHERE name + 1 > 0", KindTypeConflict)
}

func TestDelete(t *testing.T) {
	c, _, err := checkSQL(t, "DELETE FROM orders WHERE amount > 10.0")
	require.NoError(t, err)
	require.Len(t, c.Writes(), 1)
	assert.Equal(t, "orders", c.Writes()[0].Name)
	assert.Empty(t, c.References())

	requireKind(t, "DELETE FROM orders WHERE name = 'x'", KindNotFound)
}

func TestScopeMonotonicity(t *testing.T) {
	// A column resolvable in a scope stays resolvable, with the same type,
	// when the scope gains more CTEs.
	_, base, err := checkSQL(t, "SELECT id FROM users")
	require.NoError(t, err)

	_, extended, err := checkSQL(t,
		"WITH extra AS (SELECT user_id FROM orders) SELECT id FROM users")
	require.NoError(t, err)

	assert.Equal(t, base[0].Type, extended[0].Type)
}

func TestReferencesAreOrderedAndUnique(t *testing.T) {
	c, _, err := checkSQL(t,
		"SELECT u.name FROM users u JOIN orders o ON o.user_id = u.id WHERE u.id IN (SELECT user_id FROM orders)")
	require.NoError(t, err)
	refs := c.References()
	require.Len(t, refs, 2)
	assert.Equal(t, "users", refs[0].Name)
	assert.Equal(t, "orders", refs[1].Name)
}

func TestAliasPropagation(t *testing.T) {
	_, cols, err := checkSQL(t, "SELECT u.id FROM users u")
	require.NoError(t, err)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "u", cols[0].FromAlias)
	assert.True(t, cols[0].PrimaryKey)
}

func TestRename(t *testing.T) {
	q := &InferredQuery{Columns: []InferredQueryColumn{
		{Name: "a", Type: concrete(false, schema.Integer)},
		{Name: "b", Type: concrete(true, schema.Text)},
	}}
	renamed, err := q.Rename([]string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, "x", renamed.Columns[0].Name)
	assert.Equal(t, "y", renamed.Columns[1].Name)
	// The original is untouched.
	assert.Equal(t, "a", q.Columns[0].Name)

	_, err = q.Rename([]string{"x"})
	require.Error(t, err)
}
