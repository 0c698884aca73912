package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringField_Comparisons(t *testing.T) {
	email := StringField("email")
	assert.Equal(t, "email", email.Name())

	eq := email.EQ("a@b.com").(Binary)
	assert.Equal(t, Column{Name: "email"}, eq.Left)
	assert.Equal(t, OpEQ, eq.Op)
	assert.Equal(t, Literal{Value: "a@b.com"}, eq.Right)
}

func TestStringField_InNotIn(t *testing.T) {
	status := StringField("status")

	in := status.In("active", "pending").(InList)
	require.Len(t, in.Values, 2)
	assert.False(t, in.Negate)

	notIn := status.NotIn("banned").(InList)
	assert.True(t, notIn.Negate)
}

func TestStringField_ContainsEscapesLikeMetacharacters(t *testing.T) {
	name := StringField("name")
	like := name.Contains("50%_off").(Like)
	pattern := like.Pattern.(Literal).Value.(string)
	assert.Equal(t, `%50\%\_off%`, pattern)
	assert.False(t, like.Negate)
	assert.False(t, like.CaseInsensitive)
}

func TestStringField_ContainsFoldUsesCaseInsensitiveLike(t *testing.T) {
	name := StringField("name")
	like := name.ContainsFold("Foo").(Like)
	assert.True(t, like.CaseInsensitive)
}

func TestStringField_PrefixSuffix(t *testing.T) {
	name := StringField("name")

	prefix := name.HasPrefix("Jo").(Like)
	assert.Equal(t, "Jo%", prefix.Pattern.(Literal).Value)

	suffix := name.HasSuffix("th").(Like)
	assert.Equal(t, "%th", suffix.Pattern.(Literal).Value)
}

func TestStringField_EqualFold(t *testing.T) {
	name := StringField("name")
	eq := name.EqualFold("Bob").(Like)
	assert.True(t, eq.CaseInsensitive)
	assert.Equal(t, "Bob", eq.Pattern.(Literal).Value)
}

func TestStringField_NullChecks(t *testing.T) {
	name := StringField("name")
	isNull := name.IsNull().(IsNull)
	assert.False(t, isNull.Negate)

	notNull := name.NotNull().(IsNull)
	assert.True(t, notNull.Negate)
}

func TestEscapeLikePattern(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLikePattern("100%"))
	assert.Equal(t, `a\_b`, escapeLikePattern("a_b"))
	assert.Equal(t, `a\\b`, escapeLikePattern(`a\b`))
}

type userStatus string

func TestOrderedField_IntInstantiation(t *testing.T) {
	var age IntField[int] = OrderedField[int]("age")
	assert.Equal(t, "age", age.Name())

	gte := age.GTE(18).(Binary)
	assert.Equal(t, OpGTE, gte.Op)
	assert.Equal(t, Literal{Value: 18}, gte.Right)

	in := age.In(18, 21, 65).(InList)
	require.Len(t, in.Values, 3)
}

func TestOrderedField_BoolInstantiation(t *testing.T) {
	var active BoolField = OrderedField[bool]("active")
	eq := active.EQ(true).(Binary)
	assert.Equal(t, Literal{Value: true}, eq.Right)
}

func TestOrderedField_EnumInstantiation(t *testing.T) {
	var status EnumField[userStatus] = OrderedField[userStatus]("status")
	eq := status.EQ(userStatus("active")).(Binary)
	assert.Equal(t, Literal{Value: userStatus("active")}, eq.Right)
}

func TestOrderedField_NullChecks(t *testing.T) {
	var age IntField[int] = OrderedField[int]("age")
	isNull := age.IsNull().(IsNull)
	assert.False(t, isNull.Negate)
	notNull := age.NotNull().(IsNull)
	assert.True(t, notNull.Negate)
}
