package migration

// MapRow shapes one origin row for the destination table. It renames columns,
// fills defaults for absent or null columns and passes every other column
// through. The input row is never modified.
func MapRow(spec TableSpec, index int, row Row) (Row, error) {
	if !hasValue(row, spec.Key) {
		return nil, &MappingError{
			Table:  spec.Source,
			Row:    index,
			Field:  spec.Key,
			Reason: "is missing",
		}
	}

	out := make(Row, len(row)+len(spec.Defaults))
	for column, value := range row {
		if renamed, ok := spec.Renames[column]; ok {
			column = renamed
		}
		out[column] = value
	}

	for column, value := range spec.Defaults {
		if !hasValue(out, column) {
			out[column] = value
		}
	}

	if spec.Validate != nil {
		if err := spec.Validate(out); err != nil {
			return nil, &MappingError{
				Table:  spec.Source,
				Row:    index,
				Reason: err.Error(),
			}
		}
	}

	return out, nil
}

func hasValue(row Row, column string) bool {
	value, ok := row[column]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString && s == "" {
		return false
	}
	return true
}
