package trigger

import "fmt"

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error { return e.Err }

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error { return e.Err }

// ErrLocked is returned by every mutator of a locked record.
type ErrLocked struct {
	Record string
}

func (e *ErrLocked) Error() string {
	return fmt.Sprintf("%s is locked", e.Record)
}

// ErrState represents a call made in the wrong lifecycle state, such as
// processing before initialization or initializing twice.
type ErrState struct {
	Component string
	Op        string
	State     string
}

func (e *ErrState) Error() string {
	return fmt.Sprintf("%s: cannot %s: %s", e.Component, e.Op, e.State)
}

// ErrRange represents a value outside its hardware range.
type ErrRange struct {
	Field string
	Value int64
	Limit int64
}

func (e *ErrRange) Error() string {
	return fmt.Sprintf("%s %d out of range [0, %d)", e.Field, e.Value, e.Limit)
}

// ErrDomain represents a value that is in range but not allowed,
// like the control board address.
type ErrDomain struct {
	Field  string
	Value  int64
	Reason string
}

func (e *ErrDomain) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Field, e.Value, e.Reason)
}

// ErrMemory represents a faulty associative memory access or truth table.
type ErrMemory struct {
	Name    string
	Address uint32
	Reason  string
}

func (e *ErrMemory) Error() string {
	return fmt.Sprintf("memory %q, address 0x%x: %s", e.Name, e.Address, e.Reason)
}

// ErrUnmapped is returned by a mapping that has no entry for an address.
type ErrUnmapped struct {
	Subsystem string
	Address   string
}

func (e *ErrUnmapped) Error() string {
	return fmt.Sprintf("no %s channel mapped to %s", e.Subsystem, e.Address)
}
