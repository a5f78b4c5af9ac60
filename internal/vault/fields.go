package vault

import "strings"

// BaseFields is a partial set of base field values. A nil member means the
// field was not supplied.
type BaseFields struct {
	Name     *string
	Protocol *string
	Website  *string
	Username *string
	Password *string
	Notes    *string
}

// Set assigns a base field by name and reports whether the name was recognized.
func (b *BaseFields) Set(name, value string) bool {
	v := value
	switch name {
	case FieldName:
		b.Name = &v
	case FieldProtocol:
		b.Protocol = &v
	case FieldWebsite:
		b.Website = &v
	case FieldUsername:
		b.Username = &v
	case FieldPassword:
		b.Password = &v
	case FieldNotes:
		b.Notes = &v
	default:
		return false
	}
	return true
}

// Empty reports whether no field was supplied.
func (b BaseFields) Empty() bool {
	return b.Name == nil && b.Protocol == nil && b.Website == nil &&
		b.Username == nil && b.Password == nil && b.Notes == nil
}

// Apply overwrites the supplied fields on e, leaving the rest untouched.
func (b BaseFields) Apply(e *Entry) {
	if b.Name != nil {
		e.Name = *b.Name
	}
	if b.Protocol != nil {
		e.Protocol = *b.Protocol
	}
	if b.Website != nil {
		e.Website = *b.Website
	}
	if b.Username != nil {
		e.Username = *b.Username
	}
	if b.Password != nil {
		e.Password = *b.Password
	}
	if b.Notes != nil {
		e.Notes = *b.Notes
	}
}

// Trimmed returns a copy with surrounding whitespace removed from the
// identifying fields. Password and notes are kept verbatim.
func (b BaseFields) Trimmed() BaseFields {
	return BaseFields{
		Name:     trimPtr(b.Name),
		Protocol: trimPtr(b.Protocol),
		Website:  trimPtr(b.Website),
		Username: trimPtr(b.Username),
		Password: b.Password,
		Notes:    b.Notes,
	}
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// String returns a pointer to s, for building BaseFields literals.
func String(s string) *string {
	return &s
}
