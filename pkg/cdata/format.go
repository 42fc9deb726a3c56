package cdata

import (
	"github.com/dataplume/arrowbridge/pkg/errors"
	"github.com/dataplume/arrowbridge/pkg/types"
)

// formatFor returns the interchange format tag for a type.
func formatFor(t *types.DataType) (string, error) {
	switch t.Kind() {
	// Scalar types.
	case types.Bool:
		return "b", nil
	case types.Int8:
		return "c", nil
	case types.Int16:
		return "s", nil
	case types.Int32:
		return "i", nil
	case types.Int64:
		return "l", nil
	case types.Float32:
		return "f", nil
	case types.Float64:
		return "g", nil
	case types.String:
		return "u", nil
	case types.Binary:
		return "z", nil
	case types.Timestamp:
		return "ttn", nil // nanosecond unit
	case types.Date:
		return "tdD", nil // day unit
	// Nested types.
	case types.List:
		return "+L", nil
	case types.Map:
		return "+m", nil
	case types.Struct:
		return "+s", nil
	default:
		return "", errors.Newf(errors.ErrorTypeCapability,
			"type kind %s has no format tag", t.Kind())
	}
}

// typeFor parses a live schema node's format tag into an internal type,
// recursing into children for nested tags. Child failures propagate
// unchanged.
func typeFor(node *SchemaNode) (*types.DataType, error) {
	format := node.Format
	if format == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "schema node carries no format tag")
	}

	switch format[0] {
	case 'b':
		if len(format) == 1 {
			return types.BoolType(), nil
		}
	case 'c':
		if len(format) == 1 {
			return types.Int8Type(), nil
		}
	case 's':
		if len(format) == 1 {
			return types.Int16Type(), nil
		}
	case 'i':
		if len(format) == 1 {
			return types.Int32Type(), nil
		}
	case 'l':
		if len(format) == 1 {
			return types.Int64Type(), nil
		}
	case 'f':
		if len(format) == 1 {
			return types.Float32Type(), nil
		}
	case 'g':
		if len(format) == 1 {
			return types.Float64Type(), nil
		}

	// Both utf-8 and large utf-8 map to the same string kind.
	case 'u', 'U':
		if len(format) == 1 {
			return types.StringType(), nil
		}

	// Same for binary.
	case 'z', 'Z':
		if len(format) == 1 {
			return types.BinaryType(), nil
		}

	// Temporal types.
	case 't':
		if format == "ttn" {
			return types.TimestampType(), nil
		}
		if format == "tdD" {
			return types.DateType(), nil
		}

	// Nested types.
	case '+':
		if len(format) >= 2 {
			switch format[1] {
			case 'L':
				if err := checkArity(node, 1); err != nil {
					return nil, err
				}
				elem, err := typeFor(node.Children[0])
				if err != nil {
					return nil, err
				}
				return types.ListOf(elem), nil

			case 'm':
				if err := checkArity(node, 2); err != nil {
					return nil, err
				}
				key, err := typeFor(node.Children[0])
				if err != nil {
					return nil, err
				}
				value, err := typeFor(node.Children[1])
				if err != nil {
					return nil, err
				}
				return types.MapOf(key, value), nil

			case 's':
				fields := make([]types.Field, 0, len(node.Children))
				for i, child := range node.Children {
					if child == nil {
						return nil, errors.Newf(errors.ErrorTypeValidation,
							"struct schema node has nil child at index %d", i)
					}
					childType, err := typeFor(child)
					if err != nil {
						return nil, err
					}
					// A missing display name defaults to the empty string.
					fields = append(fields, types.Field{Name: child.Name, Type: childType})
				}
				return types.StructOf(fields...), nil
			}
		}
	}

	return nil, errors.Newf(errors.ErrorTypeValidation,
		"unrecognized format tag %q", format)
}

// checkArity validates a nested node's declared child count and pointers.
func checkArity(node *SchemaNode, want int) error {
	if len(node.Children) != want {
		return errors.Newf(errors.ErrorTypeValidation,
			"format tag %q requires %d children, got %d", node.Format, want, len(node.Children))
	}
	for i, child := range node.Children {
		if child == nil {
			return errors.Newf(errors.ErrorTypeValidation,
				"format tag %q has nil child at index %d", node.Format, i)
		}
	}
	return nil
}
