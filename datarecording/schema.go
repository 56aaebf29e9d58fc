package datarecording

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/fatih/structs"
)

var columnKinds = map[reflect.Kind]bool{
	reflect.Bool:    true,
	reflect.Int:     true,
	reflect.Int8:    true,
	reflect.Int16:   true,
	reflect.Int32:   true,
	reflect.Int64:   true,
	reflect.Uint:    true,
	reflect.Uint8:   true,
	reflect.Uint16:  true,
	reflect.Uint32:  true,
	reflect.Uint64:  true,
	reflect.Float32: true,
	reflect.Float64: true,
	reflect.String:  true,
}

// tableSchema describes a table whose columns are the fields of a flat
// struct.
type tableSchema struct {
	name      string
	entryType reflect.Type
	columns   []string
}

func newTableSchema(name string, sample any) (*tableSchema, error) {
	if err := checkStructFields(sample); err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}

	return &tableSchema{
		name:      name,
		entryType: reflect.TypeOf(sample),
		columns:   structs.Names(sample),
	}, nil
}

func checkStructFields(entry any) error {
	t := reflect.TypeOf(entry)
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("entry of type %v is not a struct", t)
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			return fmt.Errorf("field %s is not exported", field.Name)
		}

		if !columnKinds[field.Type.Kind()] {
			return fmt.Errorf("field %s of kind %s cannot be a column",
				field.Name, field.Type.Kind())
		}
	}

	return nil
}

func (s *tableSchema) matches(entry any) bool {
	return reflect.TypeOf(entry) == s.entryType
}

func (s *tableSchema) createSQL() string {
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n);",
		s.name, strings.Join(s.columns, ",\n\t"))
}

func (s *tableSchema) insertSQL() string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(s.columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", s.name, marks)
}
