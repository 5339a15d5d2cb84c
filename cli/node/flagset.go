package node

// FlagSet is the set of flags of a command as it is sent to the running node.
// The values went through a JSON encoding, which turns numbers into float64
// and slices into []interface{}.
//
// - implements cli.Flags
type FlagSet map[string]interface{}

// String implements cli.Flags.
func (fset FlagSet) String(name string) string {
	text, _ := fset[name].(string)
	return text
}

// Path implements cli.Flags. A path is sent as text.
func (fset FlagSet) Path(name string) string {
	return fset.String(name)
}

// StringSlice implements cli.Flags.
func (fset FlagSet) StringSlice(name string) []string {
	switch v := fset[name].(type) {
	case []string:
		return v
	case []interface{}:
		values := make([]string, 0, len(v))
		for _, elem := range v {
			text, ok := elem.(string)
			if ok {
				values = append(values, text)
			}
		}

		return values
	default:
		return nil
	}
}

// Int implements cli.Flags. A number with a fractional part is not an integer
// and returns zero.
func (fset FlagSet) Int(name string) int {
	switch v := fset[name].(type) {
	case int:
		return v
	case float64:
		if v != float64(int(v)) {
			return 0
		}

		return int(v)
	default:
		return 0
	}
}

// Bool implements cli.Flags.
func (fset FlagSet) Bool(name string) bool {
	b, _ := fset[name].(bool)
	return b
}
