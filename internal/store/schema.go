package store

import (
	"fmt"
	"reflect"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/abhisek/quizstreak/ent/schema"
)

const (
	questionsTableName   = "questions"
	attemptsTableName    = "attempts"
	deliveriesTableName  = "deliveries"
	llmRequestsTableName = "llm_requests"
)

// entities binds each declarative schema in ent/schema to its table.
var entities = []struct {
	table  string
	schema ent.Interface
}{
	{questionsTableName, entschema.Question{}},
	{attemptsTableName, entschema.Attempt{}},
	{deliveriesTableName, entschema.Delivery{}},
	{llmRequestsTableName, entschema.LLMRequest{}},
}

// Tables holds the migration tables, built from the ent/schema
// descriptors: mixin and schema fields become columns, index.Fields become
// indexes and inverse edges bound to a field become foreign keys.
var Tables = buildTables()

func buildTables() []*schema.Table {
	byType := make(map[string]*schema.Table, len(entities))
	tables := make([]*schema.Table, 0, len(entities))
	for _, e := range entities {
		t := tableOf(e.table, e.schema)
		byType[typeName(e.schema)] = t
		tables = append(tables, t)
	}
	for _, e := range entities {
		addForeignKeys(byType[typeName(e.schema)], e.schema, byType)
	}
	return tables
}

func typeName(s ent.Interface) string {
	return reflect.TypeOf(s).Name()
}

func tableOf(name string, s ent.Interface) *schema.Table {
	var descs []*field.Descriptor
	var indexes []ent.Index
	for _, m := range s.Mixin() {
		for _, f := range m.Fields() {
			descs = append(descs, f.Descriptor())
		}
		indexes = append(indexes, m.Indexes()...)
	}
	for _, f := range s.Fields() {
		descs = append(descs, f.Descriptor())
	}
	indexes = append(indexes, s.Indexes()...)

	t := &schema.Table{Name: name}
	var id *schema.Column
	for _, d := range descs {
		if d.Err != nil {
			panic(fmt.Sprintf("store: schema %s field %s: %v", typeName(s), d.Name, d.Err))
		}
		c := columnOf(d)
		if d.Name == "id" {
			id = c
			continue
		}
		t.Columns = append(t.Columns, c)
	}
	if id == nil {
		id = &schema.Column{Name: "id", Type: field.TypeInt64, Increment: true}
	}
	t.Columns = append([]*schema.Column{id}, t.Columns...)
	t.PrimaryKey = []*schema.Column{id}

	prefix := strings.ToLower(typeName(s))
	for _, idx := range indexes {
		d := idx.Descriptor()
		cols := make([]*schema.Column, 0, len(d.Fields))
		for _, f := range d.Fields {
			cols = append(cols, mustColumn(t, f))
		}
		t.Indexes = append(t.Indexes, &schema.Index{
			Name:    prefix + "_" + strings.Join(d.Fields, "_"),
			Unique:  d.Unique,
			Columns: cols,
		})
	}
	return t
}

func columnOf(d *field.Descriptor) *schema.Column {
	c := &schema.Column{
		Name:     d.Name,
		Type:     d.Info.Type,
		Unique:   d.Unique,
		Size:     int64(d.Size),
		Nullable: d.Optional || d.Nillable,
	}
	// Function defaults such as time.Now are applied by the store, not the
	// database.
	if d.Default != nil && reflect.TypeOf(d.Default).Kind() != reflect.Func {
		c.Default = d.Default
	}
	return c
}

func addForeignKeys(t *schema.Table, s ent.Interface, byType map[string]*schema.Table) {
	for _, e := range s.Edges() {
		d := e.Descriptor()
		if !d.Inverse || d.Field == "" {
			continue
		}
		ref, ok := byType[d.Type]
		if !ok {
			panic(fmt.Sprintf("store: edge %s.%s references unknown schema %s", typeName(s), d.Name, d.Type))
		}
		t.ForeignKeys = append(t.ForeignKeys, &schema.ForeignKey{
			Symbol:     t.Name + "_" + ref.Name + "_" + d.RefName,
			Columns:    []*schema.Column{mustColumn(t, d.Field)},
			RefTable:   ref,
			RefColumns: []*schema.Column{ref.PrimaryKey[0]},
			OnDelete:   schema.NoAction,
		})
	}
}

func mustColumn(t *schema.Table, name string) *schema.Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	panic(fmt.Sprintf("store: table %s has no column %s", t.Name, name))
}
