// Package form holds the client side validation rules of the console's forms.
// A form that fails validation never reaches the API client.
package form

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-pos-console/apperror"
	"github.com/goliatone/go-pos-console/filter"
)

// MinPasswordLength is the shortest password accepted by login and registration.
const MinPasswordLength = 8

// ImageTypes are the content types accepted for a menu image.
var ImageTypes = []any{"image/png", "image/jpg", "image/jpeg"}

// Check runs v's rules and converts ozzo field errors into a Validation error.
// Errors that are not field errors are returned unchanged.
func Check(v validation.Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make(map[string]string, len(fieldErrs))
	for name, ferr := range fieldErrs {
		if ferr != nil {
			fields[name] = ferr.Error()
		}
	}
	return apperror.Validation(fields)
}

// Credentials is the login form.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Username, validation.Required.Error("Username cannot be empty")),
		validation.Field(&c.Password,
			validation.Required.Error("Password must be at least 8 characters"),
			validation.RuneLength(MinPasswordLength, 0).Error("Password must be at least 8 characters")),
	)
}

// Registration is the admin or customer account form. It uses the same rules as
// the login form.
type Registration struct {
	Credentials
}

func (r Registration) Validate() error {
	return r.Credentials.Validate()
}

// MenuForm is the create or edit form of a menu item. Price is the raw input.
type MenuForm struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	ImageType string `json:"image"`
}

func (m MenuForm) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required.Error("name cannot be empty")),
		validation.Field(&m.Price,
			validation.Required.Error("price must be at least 1 digit"),
			validation.By(nonNegativeDecimal)),
		validation.Field(&m.ImageType, validation.In(ImageTypes...).Error("image must be png, jpg or jpeg")),
	)
}

// Amount returns the parsed price. Call it after Validate.
func (m MenuForm) Amount() decimal.Decimal {
	d, _ := decimal.NewFromString(m.Price)
	return d
}

// TableForm is the create or edit form of a table.
type TableForm struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (t TableForm) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required.Error("name cannot be empty")),
	)
}

// UserForm edits a user's profile. Name and phone number are optional.
type UserForm struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

func (u UserForm) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.ID, validation.Required),
		validation.Field(&u.PhoneNumber, validation.Length(0, 20)),
	)
}

// TransactionSearch is the transaction list search form. Empty dates are allowed.
type TransactionSearch struct {
	UserName       string `json:"userName"`
	StartTransDate string `json:"startTransDate"`
	EndTransDate   string `json:"endTransDate"`
}

func (s TransactionSearch) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.StartTransDate, validation.Date(filter.DateLayout).Error("must be a date (YYYY-MM-DD)")),
		validation.Field(&s.EndTransDate,
			validation.Date(filter.DateLayout).Error("must be a date (YYYY-MM-DD)"),
			validation.By(s.notBeforeStart)),
	)
}

// DateRange returns the searched period.
func (s TransactionSearch) DateRange() filter.DateRange {
	return filter.DateRange{Start: s.StartTransDate, End: s.EndTransDate}
}

// WithDefaults fills missing dates with the first day of now's year and today.
// Exports always carry a period.
func (s TransactionSearch) WithDefaults(now time.Time) TransactionSearch {
	if s.StartTransDate == "" {
		s.StartTransDate = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()).Format(filter.DateLayout)
	}
	if s.EndTransDate == "" {
		s.EndTransDate = now.Format(filter.DateLayout)
	}
	return s
}

func (s TransactionSearch) notBeforeStart(value any) error {
	end, _ := value.(string)
	if end == "" || s.StartTransDate == "" {
		return nil
	}
	start, err := time.Parse(filter.DateLayout, s.StartTransDate)
	if err != nil {
		return nil
	}
	e, err := time.Parse(filter.DateLayout, end)
	if err != nil {
		return nil
	}
	if e.Before(start) {
		return errors.New("must not be before the start date")
	}
	return nil
}

func nonNegativeDecimal(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return errors.New("price must be a number")
	}
	if d.IsNegative() {
		return errors.New("price must not be negative")
	}
	return nil
}
