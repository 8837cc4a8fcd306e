package schema_test

import (
	"errors"
	"reflect"
	"strconv"
	"sync"
	"testing"

	"github.com/syssam/nodus/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func NewPerson(name string, age int) *Person {
	return &Person{Name: name, Age: age}
}

func personManifest() []schema.TypeSpec {
	return []schema.TypeSpec{
		schema.Type(Person{}, schema.WithConstructor(NewPerson, "name", "age")),
		schema.Type(WorksFor{}),
		schema.Type(ReportsTo{}),
	}
}

// TestRegistryInitialize tests the manifest scan end to end.
func TestRegistryInitialize(t *testing.T) {
	reg := schema.NewRegistry()
	require.NoError(t, reg.Initialize(personManifest()...))

	t.Run("lookup_by_label", func(t *testing.T) {
		es, err := reg.Lookup("Person")
		require.NoError(t, err)
		assert.Equal(t, schema.KindNode, es.Kind)
		assert.Equal(t, "Person", es.Label)
		assert.Equal(t, reflect.TypeOf(Person{}), es.Type)
	})

	t.Run("relationship_kind_derivation", func(t *testing.T) {
		es, err := reg.Lookup("WORKS_FOR")
		require.NoError(t, err)
		assert.Equal(t, schema.KindRelationship, es.Kind)

		// No tag on the marker: derived from the type name.
		es, err = reg.Lookup("REPORTS_TO")
		require.NoError(t, err)
		assert.Equal(t, reflect.TypeOf(ReportsTo{}), es.Type)
	})

	t.Run("property_table", func(t *testing.T) {
		es, err := reg.SchemaOf(reflect.TypeOf(&Person{}))
		require.NoError(t, err)

		id := es.Identity()
		require.NotNil(t, id)
		assert.Equal(t, "id", id.Name)
		assert.True(t, id.Unique)

		name, ok := es.Property("name")
		require.True(t, ok)
		assert.Equal(t, schema.Simple, name.Class)
		assert.True(t, name.Required)
		assert.True(t, name.Unique)
		assert.True(t, name.FullText)
		assert.Equal(t, "min=1,max=120", name.Validate)

		age, ok := es.Property("age")
		require.True(t, ok)
		assert.True(t, age.Indexed)
		assert.False(t, age.FullText)

		email, ok := es.Property("email")
		require.True(t, ok, "stored name derived from field name")
		assert.Equal(t, "Email", email.FieldName)

		tags, ok := es.Property("tags")
		require.True(t, ok)
		assert.Equal(t, schema.SimpleCollection, tags.Class)

		home, ok := es.Property("home")
		require.True(t, ok)
		assert.Equal(t, schema.Complex, home.Class)
		assert.Equal(t, "__PROPERTY__home__", home.RelKind)

		offices, ok := es.Property("offices")
		require.True(t, ok)
		assert.Equal(t, schema.ComplexCollection, offices.Class)
		assert.Equal(t, "__PROPERTY__offices__", offices.RelKind)

		_, ok = es.Property("internal")
		assert.False(t, ok, "unexported fields are not properties")
	})

	t.Run("case_insensitive_property_lookup", func(t *testing.T) {
		es, err := reg.Lookup("Person")
		require.NoError(t, err)
		p, ok := es.Property("NAME")
		require.True(t, ok)
		assert.Equal(t, "name", p.Name)
	})

	t.Run("complex_sub_schema_scanned", func(t *testing.T) {
		es, err := reg.SchemaOf(reflect.TypeOf(Address{}))
		require.NoError(t, err)
		assert.Equal(t, schema.KindComplex, es.Kind)
		assert.Equal(t, "Address", es.Label)
		street, ok := es.Property("street")
		require.True(t, ok)
		assert.True(t, street.Required)
	})

	t.Run("schemas_exclude_complex", func(t *testing.T) {
		var labels []string
		for _, es := range reg.Schemas() {
			labels = append(labels, es.Label)
		}
		assert.Equal(t, []string{"Person", "WORKS_FOR", "REPORTS_TO"}, labels)
	})

	t.Run("unknown_label", func(t *testing.T) {
		_, err := reg.Lookup("Ghost")
		assert.True(t, schema.IsNotFound(err))
		assert.ErrorIs(t, err, schema.ErrNotFound)
	})
}

// TestRegistryBeforeInitialize tests lookups on a fresh registry.
func TestRegistryBeforeInitialize(t *testing.T) {
	reg := schema.NewRegistry()
	assert.False(t, reg.Initialized())

	_, err := reg.Lookup("Person")
	assert.True(t, schema.IsNotFound(err))

	_, err = reg.SchemaFor(Person{})
	assert.True(t, schema.IsNotFound(err))

	assert.Nil(t, reg.Schemas())
}

// TestRegistryIdempotent tests that the scan happens exactly once.
func TestRegistryIdempotent(t *testing.T) {
	t.Run("second_call_is_ignored", func(t *testing.T) {
		reg := schema.NewRegistry()
		require.NoError(t, reg.Initialize(personManifest()...))
		// Different manifest, same outcome: the first scan won.
		require.NoError(t, reg.Initialize())
		_, err := reg.Lookup("Person")
		assert.NoError(t, err)
	})

	t.Run("failed_scan_result_sticks", func(t *testing.T) {
		type broken struct {
			schema.Node
			A string `graph:"x"`
			B string `graph:"x"`
		}
		reg := schema.NewRegistry()
		err := reg.Initialize(schema.Type(broken{}))
		require.Error(t, err)
		assert.Equal(t, err, reg.Initialize(personManifest()...))
		assert.False(t, reg.Initialized())
	})

	t.Run("concurrent_first_callers", func(t *testing.T) {
		reg := schema.NewRegistry()
		var wg sync.WaitGroup
		errs := make([]error, 16)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = reg.Initialize(personManifest()...)
			}(i)
		}
		wg.Wait()
		for i, err := range errs {
			assert.NoError(t, err, strconv.Itoa(i))
		}
		_, err := reg.Lookup("WORKS_FOR")
		assert.NoError(t, err)
	})
}

// TestRegistryErrors tests manifest rejection.
func TestRegistryErrors(t *testing.T) {
	type dupName struct {
		schema.Node
		A string `graph:"same"`
		B string `graph:"same"`
	}
	type relWithComplex struct {
		schema.Relationship
		Home Address `graph:"home"`
	}
	type badKind struct {
		schema.Node
		M map[string]string `graph:"m"`
	}
	type entityProp struct {
		schema.Node
		Friend Person `graph:"friend"`
	}
	type badOption struct {
		schema.Node
		Name string `graph:"name,sparkly"`
	}
	type complexFlags struct {
		schema.Node
		Home Address `graph:"home,unique"`
	}
	type otherPerson struct {
		schema.Node `graph:"Person"`
	}

	tests := []struct {
		name  string
		specs []schema.TypeSpec
		want  string
	}{
		{"duplicate_stored_name", schema.Types(dupName{}), "already used"},
		{"relationship_with_complex", schema.Types(relWithComplex{}), "simple properties only"},
		{"unsupported_kind", schema.Types(badKind{}), "unsupported property type"},
		{"entity_as_property", schema.Types(entityProp{}), "cannot be properties"},
		{"unknown_tag_option", schema.Types(badOption{}), "unknown graph tag option"},
		{"flags_on_complex", schema.Types(complexFlags{}), "simple properties only"},
		{"duplicate_label", schema.Types(Person{}, otherPerson{}), "already registered"},
		{"non_struct", schema.Types("nope"), "struct types"},
		{"nil_entry", []schema.TypeSpec{schema.Type(nil)}, "nil manifest entry"},
	}
	for i, tt := range tests {
		t.Run(strconv.Itoa(i)+"_"+tt.name, func(t *testing.T) {
			reg := schema.NewRegistry()
			err := reg.Initialize(tt.specs...)
			require.Error(t, err)
			assert.True(t, schema.IsConfigurationError(err), err)
			assert.ErrorIs(t, err, schema.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// TestRequiredComplexCycle tests rejection of manifests whose required
// complex properties can never terminate.
func TestRequiredComplexCycle(t *testing.T) {
	reg := schema.NewRegistry()
	err := reg.Initialize(schema.Type(cycleOwner{}))
	require.Error(t, err)
	assert.True(t, schema.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "cycle")

	// The same shape without the required flag is fine: instances
	// terminate with nil pointers and runtime cycle detection guards
	// actual object graphs.
	reg = schema.NewRegistry()
	assert.NoError(t, reg.Initialize(schema.Type(chainOwner{})))
}

type cyclePart struct {
	Back *cyclePart `graph:"back,required"`
	Tag  string     `graph:"tag"`
}

type cycleOwner struct {
	schema.Node
	Part cyclePart `graph:"part"`
}

type chainPart struct {
	Back *chainPart `graph:"back"`
	Tag  string     `graph:"tag"`
}

type chainOwner struct {
	schema.Node
	Part chainPart `graph:"part"`
}

// TestConstructorBinding tests registered constructor validation.
func TestConstructorBinding(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		reg := schema.NewRegistry()
		require.NoError(t, reg.Initialize(
			schema.Type(Person{}, schema.WithConstructor(NewPerson, "name", "age")),
		))
		es, err := reg.Lookup("Person")
		require.NoError(t, err)
		require.Len(t, es.Constructors, 1)
		assert.Equal(t, []string{"name", "age"}, es.Constructors[0].Params)
	})

	t.Run("value_return_with_error", func(t *testing.T) {
		ctor := func(name string) (Person, error) { return Person{Name: name}, nil }
		reg := schema.NewRegistry()
		assert.NoError(t, reg.Initialize(schema.Type(Person{}, schema.WithConstructor(ctor, "name"))))
	})

	tests := []struct {
		name string
		opt  schema.TypeOption
		want string
	}{
		{"not_a_function", schema.WithConstructor(42), "must be a function"},
		{"unknown_param", schema.WithConstructor(NewPerson, "name", "shoe"), "matches no property"},
		{"arity_mismatch", schema.WithConstructor(NewPerson, "name"), "parameters"},
		{"wrong_param_type", schema.WithConstructor(func(name int) *Person { return nil }, "name"), "has type"},
		{"wrong_return", schema.WithConstructor(func(name string) string { return name }, "name"), "must return"},
		{"variadic", schema.WithConstructor(func(names ...string) *Person { return nil }), "variadic"},
	}
	for i, tt := range tests {
		t.Run(strconv.Itoa(i)+"_"+tt.name, func(t *testing.T) {
			reg := schema.NewRegistry()
			err := reg.Initialize(schema.Type(Person{}, tt.opt))
			require.Error(t, err)
			assert.True(t, schema.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// TestConfigurationErrorShape tests the error type plumbing.
func TestConfigurationErrorShape(t *testing.T) {
	cause := errors.New("boom")
	err := schema.NewConfigurationError("Person", "Name", "bad flag", cause)
	assert.Contains(t, err.Error(), "nodus: configuration error on type Person field Name: bad flag: boom")
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.ErrorIs(t, err, schema.ErrConfiguration)
}
