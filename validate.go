package careauth

import (
	"net/mail"
	"strings"
)

// Local input validation. Everything here runs before any network call and
// maps to a field-scoped sentinel; a request that fails these checks never
// reaches the API client.

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailEmpty
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrEmailInvalid
	}
	return nil
}

func validatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ErrPhoneInvalid
	}
	digits := 0
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')':
		default:
			return ErrPhoneInvalid
		}
	}
	if digits < 7 {
		return ErrPhoneInvalid
	}
	return nil
}

func validatePassword(password string, minLength int) error {
	if password == "" {
		return ErrPasswordEmpty
	}
	if len(password) < minLength {
		return ErrPasswordTooShort
	}
	return nil
}

func validatePasswordPair(password, confirm string, minLength int) error {
	if err := validatePassword(password, minLength); err != nil {
		return err
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

func validateCode(code string, length int) error {
	if len(code) != length {
		return ErrCodeFormat
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ErrCodeFormat
		}
	}
	return nil
}
