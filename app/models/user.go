package models

import "errors"

// maxPasswordBytes is bcrypt's input limit. validator's max counts runes.
const maxPasswordBytes = 72

var errPasswordTooLong = errors.New(`Must contain at most 72 byte(s) at "password"`)

// Validate checks the signup payload.
func (in *InsertUser) Validate() error {
	if err := validate.Struct(in); err != nil {
		return NewValidationError(err)
	}
	if len(in.Password) > maxPasswordBytes {
		return NewValidationError(errPasswordTooLong)
	}
	return nil
}

// Clone returns a copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
