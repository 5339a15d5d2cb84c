package cli

// Flag is the definition of an option of a command.
type Flag interface {
	GetName() string
}

// StringFlag is an option read as text.
//
// - implements cli.Flag
type StringFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    string
}

// GetName implements cli.Flag.
func (f StringFlag) GetName() string {
	return f.Name
}

// StringSliceFlag is an option that can be repeated.
//
// - implements cli.Flag
type StringSliceFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    []string
}

// GetName implements cli.Flag.
func (f StringSliceFlag) GetName() string {
	return f.Name
}

// IntFlag is an option read as an integer.
//
// - implements cli.Flag
type IntFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    int
}

// GetName implements cli.Flag.
func (f IntFlag) GetName() string {
	return f.Name
}

// BoolFlag is an option that is either present or not.
//
// - implements cli.Flag
type BoolFlag struct {
	Name  string
	Usage string
	Value bool
}

// GetName implements cli.Flag.
func (f BoolFlag) GetName() string {
	return f.Name
}
