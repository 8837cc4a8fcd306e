// Package gen emits typed helper packages for registered graph types.
// Each node and relationship type gets one subpackage holding its label
// constant and a predicate field per stored property, so call sites
// write person.Name.EQ("Alice") instead of spelling property names as
// strings.
package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/imports"

	"github.com/syssam/nodus/schema"
)

// queryPkg is the import path of the predicate field types the emitted
// packages reference.
const queryPkg = "github.com/syssam/nodus/query"

// DefaultHeader is the marker placed at the top of generated files.
const DefaultHeader = "Code generated by nodusgen. DO NOT EDIT."

// Config controls where and how helper packages are written.
type Config struct {
	// Target is the directory the packages are placed under, one
	// subdirectory per node and relationship type.
	Target string
	// Header overrides the generated-code marker at the top of every
	// file. Empty uses DefaultHeader.
	Header string
	// Workers caps the parallel emitters. Zero means GOMAXPROCS.
	Workers int
}

// Generate writes one helper package per node and relationship type of
// the registry. Complex types are skipped: they are only ever reached
// through the dotted paths of their owners, which the owner packages
// expose one level deep.
func Generate(ctx context.Context, reg *schema.Registry, cfg Config) error {
	if cfg.Target == "" {
		return fmt.Errorf("gen: target directory is required")
	}
	if !reg.Initialized() {
		return fmt.Errorf("gen: registry is not initialized")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)
	for _, es := range reg.Schemas() {
		es := es
		if es.Kind == schema.KindComplex {
			continue
		}
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return emit(es, reg, cfg)
		})
	}
	return grp.Wait()
}

func emit(es *schema.EntitySchema, reg *schema.Registry, cfg Config) error {
	pkg := PackageName(es)
	f := jen.NewFile(pkg)
	header := cfg.Header
	if header == "" {
		header = DefaultHeader
	}
	f.HeaderComment(header)

	switch es.Kind {
	case schema.KindRelationship:
		f.Commentf("Kind is the relationship kind %s instances are stored under.", es.Type.Name())
		f.Const().Id("Kind").Op("=").Lit(es.Label)
	default:
		f.Commentf("Label is the node label %s instances are stored under.", es.Type.Name())
		f.Const().Id("Label").Op("=").Lit(es.Label)
	}

	for _, p := range es.Properties {
		if p.Class.IsComplex() {
			emitComplex(f, p, reg)
			continue
		}
		if p.Class == schema.SimpleCollection {
			continue
		}
		ft := fieldType(p.Type)
		if ft == nil {
			continue
		}
		f.Var().Id(varName(p.Name)).Op("=").Add(ft).Call(jen.Lit(p.Name))
	}

	path := filepath.Join(cfg.Target, pkg, pkg+".go")
	if err := write(path, f); err != nil {
		return fmt.Errorf("gen: emitting %s: %w", es.Label, err)
	}
	return nil
}

// emitComplex declares a struct-valued var whose fields carry the
// dotted paths of the auxiliary node's simple properties, e.g.
// person.Home.City for the stored path "home.city".
func emitComplex(f *jen.File, p *schema.PropertySchema, reg *schema.Registry) {
	t := p.Type
	if p.Class == schema.ComplexCollection {
		t = p.Elem
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	nested, err := reg.SchemaOf(t)
	if err != nil {
		return
	}

	var decls []jen.Code
	values := jen.Dict{}
	for _, np := range nested.SimpleProperties() {
		if np.Class == schema.SimpleCollection {
			continue
		}
		ft := fieldType(np.Type)
		if ft == nil {
			continue
		}
		name := varName(np.Name)
		decls = append(decls, jen.Id(name).Add(ft))
		values[jen.Id(name)] = fieldType(np.Type).Call(jen.Lit(p.Name + "." + np.Name))
	}
	if len(decls) == 0 {
		return
	}
	f.Var().Id(varName(p.Name)).Op("=").Struct(decls...).Values(values)
}

// fieldType returns the query field type of a property's Go type, or
// nil when no predicate helper applies.
func fieldType(t reflect.Type) *jen.Statement {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case reflect.TypeOf(time.Time{}):
		return jen.Qual(queryPkg, "TimeField")
	case reflect.TypeOf(time.Duration(0)):
		return nil
	}
	switch t.Kind() {
	case reflect.String:
		return jen.Qual(queryPkg, "StringField")
	case reflect.Bool:
		return jen.Qual(queryPkg, "BoolField")
	case reflect.Int:
		return jen.Qual(queryPkg, "IntField")
	case reflect.Int64:
		return jen.Qual(queryPkg, "Int64Field")
	case reflect.Float64:
		return jen.Qual(queryPkg, "Float64Field")
	case reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32:
		return jen.Qual(queryPkg, "NumberField").Index(jen.Id(t.Kind().String()))
	default:
		return nil
	}
}

// PackageName returns the directory and package name of a type's
// generated helpers.
func PackageName(es *schema.EntitySchema) string {
	return strings.ToLower(es.Type.Name())
}

var titler = cases.Title(language.Und, cases.NoLower)

// varName derives the exported identifier of a stored property name:
// "created_at" becomes CreatedAt, the identity property becomes ID.
func varName(name string) string {
	if name == "id" {
		return "ID"
	}
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(titler.String(p))
	}
	return b.String()
}

func write(path string, f *jen.File) error {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return err
	}
	src, err := imports.Process(path, buf.Bytes(), nil)
	if err != nil {
		return fmt.Errorf("formatting: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, src, 0o644)
}
