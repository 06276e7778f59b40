package domain

import (
	"fmt"
	"strings"
)

type CustomerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

func (c CustomerInfo) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c CustomerInfo) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" {
		return fmt.Errorf("%w: first name is required", ErrValidation)
	}
	if strings.TrimSpace(c.LastName) == "" {
		return fmt.Errorf("%w: last name is required", ErrValidation)
	}
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email %q is invalid", ErrValidation, email)
	}
	return nil
}
