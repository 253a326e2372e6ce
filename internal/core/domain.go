package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Income            CategoryType = "INCOME"
	FixedExpense      CategoryType = "FIXED_EXPENSE"
	VariableExpense   CategoryType = "VARIABLE_EXPENSE"
	AdditionalExpense CategoryType = "ADDITIONAL_EXPENSE"
)

const (
	maxCategoryName   = 50
	maxAssetName      = 100
	maxUserName       = 100
	maxDescription    = 200
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt input limit
)

type (
	// CategoryType decides which aggregation bucket a transaction lands in.
	CategoryType string

	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		Name         string    `json:"name"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	// Category is owned by a user, or global when UserID is empty.
	Category struct {
		ID        string       `json:"id"`
		UserID    string       `json:"userId,omitempty"`
		Name      string       `json:"name"`
		Type      CategoryType `json:"type"`
		CreatedAt time.Time    `json:"createdAt"`
	}

	// MonthlyRecord is the per-user container for one calendar month.
	MonthlyRecord struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		Year      int       `json:"year"`
		Month     int       `json:"month"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Transaction struct {
		ID              string          `json:"id"`
		MonthlyRecordID string          `json:"monthlyRecordId"`
		CategoryID      string          `json:"categoryId"`
		Category        Category        `json:"category"`
		Amount          decimal.Decimal `json:"amount"`
		Description     string          `json:"description,omitempty"`
		Date            time.Time       `json:"date"`
		CreatedAt       time.Time       `json:"createdAt"`
	}

	Asset struct {
		ID              string          `json:"id"`
		MonthlyRecordID string          `json:"monthlyRecordId"`
		Name            string          `json:"name"`
		Value           decimal.Decimal `json:"value"`
		Description     string          `json:"description,omitempty"`
		CreatedAt       time.Time       `json:"createdAt"`
	}

	SignUpInput struct {
		Email    string
		Name     string
		Password string
	}

	CategoryInput struct {
		Name string
		Type CategoryType
	}

	// CategoryPatch carries only the fields being changed.
	CategoryPatch struct {
		Name *string
		Type *CategoryType
	}

	TransactionInput struct {
		CategoryID  string
		Amount      decimal.Decimal
		Description string
		Date        time.Time
	}

	TransactionPatch struct {
		CategoryID  *string
		Amount      *decimal.Decimal
		Description *string
		Date        *time.Time
	}

	AssetInput struct {
		Name        string
		Value       decimal.Decimal
		Description string
	}

	AssetPatch struct {
		Name        *string
		Value       *decimal.Decimal
		Description *string
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidCategoryType = errors.New("invalid category type")
	ErrEmptyName           = errors.New("name is required")
	ErrNameTooLong         = errors.New("name is too long")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory       = errors.New("category is required")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidYear         = errors.New("invalid year")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrWeakPassword        = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong     = errors.New("password is too long (max 72 bytes)")
	ErrEmptyPatch          = errors.New("nothing to update")
)

// IsValidationError reports whether err comes from input validation in this package.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidCategoryType, ErrEmptyName, ErrNameTooLong,
		ErrDescriptionTooLong, ErrEmptyCategory, ErrInvalidDate, ErrInvalidMonth,
		ErrInvalidYear, ErrInvalidEmail, ErrWeakPassword, ErrPasswordTooLong, ErrEmptyPatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// CategoryTypes lists the known types in display order.
func CategoryTypes() []CategoryType {
	return []CategoryType{Income, FixedExpense, VariableExpense, AdditionalExpense}
}

func ParseCategoryType(s string) (CategoryType, error) {
	t := CategoryType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidCategoryType
	}
	return t, nil
}

func (t CategoryType) IsValid() bool {
	switch t {
	case Income, FixedExpense, VariableExpense, AdditionalExpense:
		return true
	default:
		return false
	}
}

func (t CategoryType) IsExpense() bool {
	return t == FixedExpense || t == VariableExpense || t == AdditionalExpense
}

// Label returns the human readable section title for the type.
func (t CategoryType) Label() string {
	switch t {
	case Income:
		return "Income"
	case FixedExpense:
		return "Fixed expenses"
	case VariableExpense:
		return "Variable expenses"
	case AdditionalExpense:
		return "Additional expenses"
	default:
		return string(t)
	}
}

func (t CategoryType) String() string {
	return string(t)
}

func (c Category) IsGlobal() bool {
	return c.UserID == ""
}

// UsableBy reports whether transactions of userID may reference the category.
func (c Category) UsableBy(userID string) bool {
	return c.IsGlobal() || c.UserID == userID
}

func (r MonthlyRecord) Period() Period {
	return Period{Year: r.Year, Month: r.Month}
}

func (in *SignUpInput) Normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
}

func (in SignUpInput) Validate() error {
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return ErrInvalidEmail
	}
	if err := validateName(in.Name, maxUserName); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return ErrWeakPassword
	}
	if len(in.Password) > maxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

func (in CategoryInput) Validate() error {
	if err := validateName(in.Name, maxCategoryName); err != nil {
		return err
	}
	if !in.Type.IsValid() {
		return ErrInvalidCategoryType
	}
	return nil
}

func (p CategoryPatch) Validate() error {
	if p.Name == nil && p.Type == nil {
		return ErrEmptyPatch
	}
	if p.Name != nil {
		if err := validateName(*p.Name, maxCategoryName); err != nil {
			return err
		}
	}
	if p.Type != nil && !p.Type.IsValid() {
		return ErrInvalidCategoryType
	}
	return nil
}

func (in TransactionInput) Validate() error {
	if strings.TrimSpace(in.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if in.Date.IsZero() {
		return ErrInvalidDate
	}
	if utf8.RuneCountInString(in.Description) > maxDescription {
		return ErrDescriptionTooLong
	}
	return nil
}

func (p TransactionPatch) Validate() error {
	if p.CategoryID == nil && p.Amount == nil && p.Description == nil && p.Date == nil {
		return ErrEmptyPatch
	}
	if p.CategoryID != nil && strings.TrimSpace(*p.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if p.Amount != nil && !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if p.Date != nil && p.Date.IsZero() {
		return ErrInvalidDate
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > maxDescription {
		return ErrDescriptionTooLong
	}
	return nil
}

func (in AssetInput) Validate() error {
	if err := validateName(in.Name, maxAssetName); err != nil {
		return err
	}
	if in.Value.IsNegative() {
		return ErrInvalidAmount
	}
	if utf8.RuneCountInString(in.Description) > maxDescription {
		return ErrDescriptionTooLong
	}
	return nil
}

func (p AssetPatch) Validate() error {
	if p.Name == nil && p.Value == nil && p.Description == nil {
		return ErrEmptyPatch
	}
	if p.Name != nil {
		if err := validateName(*p.Name, maxAssetName); err != nil {
			return err
		}
	}
	if p.Value != nil && p.Value.IsNegative() {
		return ErrInvalidAmount
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > maxDescription {
		return ErrDescriptionTooLong
	}
	return nil
}

func validateName(name string, max int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > max {
		return ErrNameTooLong
	}
	return nil
}
