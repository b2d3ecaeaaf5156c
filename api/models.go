package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Menu is a menu item.
type Menu struct {
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
}

// Table is a dining table.
type Table struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Role is an account role such as ROLE_ADMIN. The API sends roles either as
// plain strings or as {"role": "..."} objects.
type Role string

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Role(s)
		return nil
	}

	var obj struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = Role(obj.Role)
	return nil
}

// UserAccount holds the login side of a user.
type UserAccount struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Roles    []Role `json:"roles,omitempty"`
	IsActive bool   `json:"isActive"`
}

// User is a customer or staff member.
type User struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	PhoneNumber string      `json:"phoneNumber"`
	UserAccount UserAccount `json:"userAccount"`
}

// PrimaryRole returns the first role, or "" when the user has none.
func (u User) PrimaryRole() Role {
	if len(u.UserAccount.Roles) == 0 {
		return ""
	}
	return u.UserAccount.Roles[0]
}

// TransType is the dine in / take away marker of a transaction.
type TransType struct {
	ID          string `json:"id"`
	Description string `json:"desc"`
}

// Payment is the payment state of a transaction.
type Payment struct {
	ID                string `json:"id,omitempty"`
	TransactionStatus string `json:"transactionStatus"`
	RedirectURL       string `json:"redirectUrl,omitempty"`
}

// TransactionDetail is one ordered menu. Price is the line amount charged.
type TransactionDetail struct {
	ID    string          `json:"id,omitempty"`
	Menu  Menu            `json:"menu"`
	Qty   int             `json:"qty"`
	Price decimal.Decimal `json:"price"`
}

// Transaction is a settled or pending order.
type Transaction struct {
	ID        string              `json:"id"`
	TransDate string              `json:"transDate"`
	User      User                `json:"user"`
	Table     *Table              `json:"table"`
	TransType TransType           `json:"transType"`
	Payment   *Payment            `json:"payment,omitempty"`
	Details   []TransactionDetail `json:"transactionDetails"`
}

// Total is the sum of the detail amounts.
func (t Transaction) Total() decimal.Decimal {
	total := decimal.Zero
	for _, d := range t.Details {
		total = total.Add(d.Price)
	}
	return total
}

// TableName returns the table's name, or "-" for take away orders.
func (t Transaction) TableName() string {
	if t.Table == nil {
		return "-"
	}
	return t.Table.Name
}

// Status returns the payment status, or "" when no payment was started.
func (t Transaction) Status() string {
	if t.Payment == nil {
		return ""
	}
	return t.Payment.TransactionStatus
}
