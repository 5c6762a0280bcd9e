package core

// Unit is a single source file matched by the input glob.
// A Unit is immutable once the loader has read it.
type Unit struct {
	// Path is the unit path relative to the project root, slash separated.
	Path string
	// AbsPath is the absolute filesystem path.
	AbsPath string
	// Hash is the hex sha256 of the file contents.
	Hash string
	// Size is the file size in bytes.
	Size int64
	// Exports lists the named exports in declaration order.
	// Filled in by analysis; empty until then.
	Exports []string
	// Imports lists the resolved paths this unit imports (project relative
	// for files, the raw specifier for host modules).
	Imports []string
}

// HasExport reports whether the unit exports name.
func (u *Unit) HasExport(name string) bool {
	for _, e := range u.Exports {
		if e == name {
			return true
		}
	}
	return false
}

// ExportRef points at one named export of one unit.
type ExportRef struct {
	Unit  string `json:"unit"`
	Local string `json:"local"`
}

// String renders the ref in the unit#local form used by aliases.
func (r ExportRef) String() string {
	return r.Unit + "#" + r.Local
}
