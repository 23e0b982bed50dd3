// Package schema describes tables and fields as discovered at runtime.
//
// Nothing in this package talks to a database. Field descriptors are built
// from the raw column metadata a Provider hands over, and stay immutable
// after that.
package schema

import (
	"strconv"
	"strings"
)

// Kind classifies a field's declared type into the converter it needs.
type Kind int

const (
	// KindString covers char, varchar, text and any unrecognized type.
	KindString Kind = iota
	// KindInt covers integer types of any width.
	KindInt
	// KindFloat covers float, double, real, decimal and numeric.
	KindFloat
	// KindBool covers boolean and tinyint(1).
	KindBool
	// KindTime covers datetime and timestamp types.
	KindTime
	// KindDate covers plain date columns.
	KindDate
	// KindEnum covers enumerated types with a fixed member list.
	KindEnum
	// KindSet covers MySQL SET columns, exposed as string slices.
	KindSet
	// KindBytes covers blob and bytea columns.
	KindBytes
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindDate:
		return "date"
	case KindEnum:
		return "enum"
	case KindSet:
		return "set"
	case KindBytes:
		return "bytes"
	default:
		return "string"
	}
}

// Field describes one column of a table. Immutable after schema load.
type Field struct {
	Name     string
	Type     string // raw declared type, e.g. "int(10) unsigned" or "varchar(255)"
	Kind     Kind
	Nullable bool
	Default  any // already converted to the application-level type, nil if none
	Unsigned bool
	Length   int      // declared length for sized types, 0 otherwise
	Values   []string // members of enum/set types
}

// ParseField builds a Field from raw column metadata. The default value is
// the literal string the database reports (nil when the column has none);
// it is converted through the field's kind so defaults always carry the
// application-level type.
func ParseField(name, rawType string, nullable bool, defaultValue *string) *Field {
	f := &Field{
		Name:     name,
		Type:     rawType,
		Nullable: nullable,
	}
	f.Kind, f.Unsigned, f.Length, f.Values = parseType(rawType)

	if defaultValue != nil {
		if v, err := DefaultConverters.For(f).Decode(*defaultValue); err == nil {
			f.Default = v
		}
	}
	return f
}

// parseType maps a declared SQL type to a kind plus its constraints. It
// understands the MySQL, PostgreSQL and SQLite spellings side by side since
// providers pass the type string through verbatim.
func parseType(raw string) (kind Kind, unsigned bool, length int, values []string) {
	t := strings.ToLower(strings.TrimSpace(raw))
	unsigned = strings.Contains(t, "unsigned")

	base := t
	var args string
	if i := strings.IndexByte(t, '('); i >= 0 {
		base = strings.TrimSpace(t[:i])
		if j := strings.LastIndexByte(t, ')'); j > i {
			args = t[i+1 : j]
		}
	} else if i := strings.IndexByte(t, ' '); i >= 0 {
		base = t[:i]
	}

	switch base {
	case "tinyint":
		// tinyint(1) is the MySQL boolean convention.
		if args == "1" {
			return KindBool, unsigned, 0, nil
		}
		return KindInt, unsigned, parseLength(args), nil
	case "smallint", "mediumint", "int", "integer", "bigint", "serial", "bigserial", "int2", "int4", "int8":
		return KindInt, unsigned, parseLength(args), nil
	case "float", "double", "real", "decimal", "numeric", "double precision", "float4", "float8":
		return KindFloat, unsigned, 0, nil
	case "bool", "boolean":
		return KindBool, false, 0, nil
	case "datetime", "timestamp", "timestamptz":
		return KindTime, false, 0, nil
	case "date":
		return KindDate, false, 0, nil
	case "enum":
		return KindEnum, false, 0, parseMembers(args)
	case "set":
		return KindSet, false, 0, parseMembers(args)
	case "blob", "tinyblob", "mediumblob", "longblob", "bytea", "binary", "varbinary":
		return KindBytes, false, 0, nil
	case "char", "varchar", "character", "nchar", "nvarchar":
		return KindString, false, parseLength(args), nil
	case "character varying":
		return KindString, false, parseLength(args), nil
	}

	// "timestamp with time zone", "double precision" and friends arrive with
	// the qualifier after the base word.
	switch {
	case strings.HasPrefix(t, "timestamp"):
		return KindTime, false, 0, nil
	case strings.HasPrefix(t, "double precision"):
		return KindFloat, false, 0, nil
	case strings.HasPrefix(t, "character varying"):
		return KindString, false, parseLength(args), nil
	}

	return KindString, false, parseLength(args), nil
}

func parseLength(args string) int {
	if args == "" {
		return 0
	}
	if i := strings.IndexByte(args, ','); i >= 0 {
		args = args[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return 0
	}
	return n
}

// parseMembers splits the quoted member list of an enum('a','b') or
// set('a','b') declaration.
func parseMembers(args string) []string {
	if args == "" {
		return nil
	}
	var members []string
	for _, part := range strings.Split(args, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, "'\"")
		if part != "" {
			members = append(members, part)
		}
	}
	return members
}
