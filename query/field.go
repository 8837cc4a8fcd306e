package query

import "time"

// StringField provides type-safe predicate builders for a string
// property. The generated helper packages declare one per property:
//
//	var Name = query.StringField("name")
//	set.Where(person.Name.Contains("li"))
type StringField string

// Name returns the property path.
func (f StringField) Name() string { return string(f) }

// Path returns the property as an expression.
func (f StringField) Path() *Field { return F(string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f StringField) EQ(v string) P { return FieldEQ(string(f), v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f StringField) NEQ(v string) P { return FieldNEQ(string(f), v) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f StringField) GT(v string) P { return FieldGT(string(f), v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f StringField) GTE(v string) P { return FieldGTE(string(f), v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f StringField) LT(v string) P { return FieldLT(string(f), v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f StringField) LTE(v string) P { return FieldLTE(string(f), v) }

// In returns a predicate that checks if the field value is in the given list.
func (f StringField) In(vs ...string) P { return FieldIn(string(f), anys(vs)...) }

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f StringField) NotIn(vs ...string) P { return FieldNotIn(string(f), anys(vs)...) }

// Contains returns a predicate that checks if the field contains the given substring.
func (f StringField) Contains(v string) P { return FieldContains(string(f), v) }

// ContainsFold returns a predicate that checks if the field contains the given substring (case-insensitive).
func (f StringField) ContainsFold(v string) P { return FieldContainsFold(string(f), v) }

// EqualFold returns a predicate that checks if the field equals the given value (case-insensitive).
func (f StringField) EqualFold(v string) P { return FieldEqualFold(string(f), v) }

// HasPrefix returns a predicate that checks if the field starts with the given prefix.
func (f StringField) HasPrefix(v string) P { return FieldHasPrefix(string(f), v) }

// HasSuffix returns a predicate that checks if the field ends with the given suffix.
func (f StringField) HasSuffix(v string) P { return FieldHasSuffix(string(f), v) }

// IsNil returns a predicate that checks if the field is absent.
func (f StringField) IsNil() P { return FieldNil(string(f)) }

// NotNil returns a predicate that checks if the field is present.
func (f StringField) NotNil() P { return FieldNotNil(string(f)) }

// Asc orders by the field ascending.
func (f StringField) Asc() OrderTerm { return Asc(f.Path()) }

// Desc orders by the field descending.
func (f StringField) Desc() OrderTerm { return Desc(f.Path()) }

// Upper returns the upper-cased field expression.
func (f StringField) Upper() Expr { return Upper(f.Path()) }

// Lower returns the lower-cased field expression.
func (f StringField) Lower() Expr { return Lower(f.Path()) }

// Trim returns the whitespace-trimmed field expression.
func (f StringField) Trim() Expr { return Trim(f.Path()) }

// Numeric constrains the value kinds a NumberField accepts.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// NumberField provides type-safe predicate builders for a numeric
// property. It is defined once via generics instead of once per kind.
type NumberField[T Numeric] string

// Name returns the property path.
func (f NumberField[T]) Name() string { return string(f) }

// Path returns the property as an expression.
func (f NumberField[T]) Path() *Field { return F(string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f NumberField[T]) EQ(v T) P { return FieldEQ(string(f), v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f NumberField[T]) NEQ(v T) P { return FieldNEQ(string(f), v) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f NumberField[T]) GT(v T) P { return FieldGT(string(f), v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f NumberField[T]) GTE(v T) P { return FieldGTE(string(f), v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f NumberField[T]) LT(v T) P { return FieldLT(string(f), v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f NumberField[T]) LTE(v T) P { return FieldLTE(string(f), v) }

// In returns a predicate that checks if the field value is in the given list.
func (f NumberField[T]) In(vs ...T) P { return FieldIn(string(f), anys(vs)...) }

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f NumberField[T]) NotIn(vs ...T) P { return FieldNotIn(string(f), anys(vs)...) }

// IsNil returns a predicate that checks if the field is absent.
func (f NumberField[T]) IsNil() P { return FieldNil(string(f)) }

// NotNil returns a predicate that checks if the field is present.
func (f NumberField[T]) NotNil() P { return FieldNotNil(string(f)) }

// Asc orders by the field ascending.
func (f NumberField[T]) Asc() OrderTerm { return Asc(f.Path()) }

// Desc orders by the field descending.
func (f NumberField[T]) Desc() OrderTerm { return Desc(f.Path()) }

// Sum aggregates the field by summation.
func (f NumberField[T]) Sum() Expr { return Sum(f.Path()) }

// Avg aggregates the field by arithmetic mean.
func (f NumberField[T]) Avg() Expr { return Avg(f.Path()) }

// Min aggregates the field by minimum.
func (f NumberField[T]) Min() Expr { return Min(f.Path()) }

// Max aggregates the field by maximum.
func (f NumberField[T]) Max() Expr { return Max(f.Path()) }

// The common numeric instantiations, named for the generated helpers.
type (
	IntField     = NumberField[int]
	Int64Field   = NumberField[int64]
	Float64Field = NumberField[float64]
)

// BoolField provides type-safe predicate builders for a boolean
// property.
type BoolField string

// Name returns the property path.
func (f BoolField) Name() string { return string(f) }

// Path returns the property as an expression.
func (f BoolField) Path() *Field { return F(string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f BoolField) EQ(v bool) P { return FieldEQ(string(f), v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f BoolField) NEQ(v bool) P { return FieldNEQ(string(f), v) }

// IsTrue returns a predicate that checks if the field is true.
func (f BoolField) IsTrue() P { return FieldEQ(string(f), true) }

// IsFalse returns a predicate that checks if the field is false.
func (f BoolField) IsFalse() P { return FieldEQ(string(f), false) }

// IsNil returns a predicate that checks if the field is absent.
func (f BoolField) IsNil() P { return FieldNil(string(f)) }

// NotNil returns a predicate that checks if the field is present.
func (f BoolField) NotNil() P { return FieldNotNil(string(f)) }

// TimeField provides type-safe predicate builders for a time property.
type TimeField string

// Name returns the property path.
func (f TimeField) Name() string { return string(f) }

// Path returns the property as an expression.
func (f TimeField) Path() *Field { return F(string(f)) }

// EQ returns a predicate that checks if the field equals the given instant.
func (f TimeField) EQ(v time.Time) P { return FieldEQ(string(f), v) }

// NEQ returns a predicate that checks if the field does not equal the given instant.
func (f TimeField) NEQ(v time.Time) P { return FieldNEQ(string(f), v) }

// After returns a predicate that checks if the field is after the given instant.
func (f TimeField) After(v time.Time) P { return FieldGT(string(f), v) }

// Before returns a predicate that checks if the field is before the given instant.
func (f TimeField) Before(v time.Time) P { return FieldLT(string(f), v) }

// GTE returns a predicate that checks if the field is at or after the given instant.
func (f TimeField) GTE(v time.Time) P { return FieldGTE(string(f), v) }

// LTE returns a predicate that checks if the field is at or before the given instant.
func (f TimeField) LTE(v time.Time) P { return FieldLTE(string(f), v) }

// IsNil returns a predicate that checks if the field is absent.
func (f TimeField) IsNil() P { return FieldNil(string(f)) }

// NotNil returns a predicate that checks if the field is present.
func (f TimeField) NotNil() P { return FieldNotNil(string(f)) }

// Asc orders by the field ascending.
func (f TimeField) Asc() OrderTerm { return Asc(f.Path()) }

// Desc orders by the field descending.
func (f TimeField) Desc() OrderTerm { return Desc(f.Path()) }

func anys[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
