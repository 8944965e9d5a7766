package core

import (
	"strings"
	"time"
)

// Budget periods. Informational only, there is no rollover.
const (
	PeriodWeekly    = "weekly"
	PeriodMonthly   = "monthly"
	PeriodQuarterly = "quarterly"
	PeriodAnnually  = "annually"
)

const (
	DefaultTrackerType    = "personal"
	DefaultTrackerIcon    = "💰"
	DefaultTrackerColor   = "#6366f1"
	DefaultAccountType    = "personal"
	DefaultPaymentMethod  = "cash"
	DefaultFrequency      = "monthly"
	DefaultAlertThreshold = 80.0
)

type (
	// Scope identifies the caller and the tracker every operation is confined to.
	Scope struct {
		UserID       int64
		TrackerID    int64
		SessionToken string
	}

	User struct {
		ID             int64  `json:"user_id"`
		Email          string `json:"email"`
		PasswordHash   string `json:"-"`
		GoogleID       string `json:"-"`
		FullName       string `json:"full_name"`
		ProfilePicture string `json:"profile_picture,omitempty"`
		AccountType    string `json:"account_type"`
		IsActive       bool   `json:"is_active"`
		LastLogin      string `json:"last_login,omitempty"`
		CreatedAt      string `json:"created_at"`
	}

	NewUser struct {
		Email          string
		PasswordHash   string
		GoogleID       string
		FullName       string
		AccountType    string
		ProfilePicture string
	}

	ProfilePatch struct {
		FullName       *string `json:"full_name"`
		AccountType    *string `json:"account_type"`
		ProfilePicture *string `json:"profile_picture"`
	}

	// GoogleIdentity is the verified identity returned by the OAuth exchange.
	GoogleIdentity struct {
		ID      string
		Email   string
		Name    string
		Picture string
	}

	Session struct {
		Token           string
		UserID          int64
		ActiveTrackerID *int64
		CreatedAt       time.Time
		ExpiresAt       time.Time
	}

	Tracker struct {
		ID          int64  `json:"tracker_id"`
		UserID      int64  `json:"user_id"`
		Name        string `json:"tracker_name"`
		Type        string `json:"tracker_type"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
		Color       string `json:"color"`
		IsDefault   bool   `json:"is_default"`
		IsActive    bool   `json:"is_active"`
		CreatedAt   string `json:"created_at"`
	}

	TrackerInput struct {
		Name        string `json:"tracker_name"`
		Type        string `json:"tracker_type"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
		Color       string `json:"color"`
	}

	TrackerPatch struct {
		Name        *string `json:"tracker_name"`
		Type        *string `json:"tracker_type"`
		Description *string `json:"description"`
		Icon        *string `json:"icon"`
		Color       *string `json:"color"`
	}

	Category struct {
		ID       int64  `json:"category_id"`
		UserID   *int64 `json:"user_id"`
		Name     string `json:"category_name"`
		Icon     string `json:"icon"`
		Color    string `json:"color"`
		IsSystem bool   `json:"is_system"`
	}

	CategoryInput struct {
		Name  string `json:"category_name"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}

	IncomeSource struct {
		ID             int64  `json:"source_id"`
		UserID         int64  `json:"user_id"`
		TrackerID      int64  `json:"tracker_id"`
		Name           string `json:"source_name"`
		Type           string `json:"source_type"`
		Description    string `json:"description"`
		IsRecurring    bool   `json:"is_recurring"`
		Frequency      string `json:"frequency"`
		ExpectedAmount *Money `json:"expected_amount"`
		IsActive       bool   `json:"is_active"`
		CreatedAt      string `json:"created_at"`
	}

	IncomeSourceInput struct {
		Name           string          `json:"source_name"`
		Type           string          `json:"source_type"`
		Description    string          `json:"description"`
		IsRecurring    FlexBool        `json:"is_recurring"`
		Frequency      string          `json:"frequency"`
		ExpectedAmount Nullable[Money] `json:"expected_amount"`
	}

	IncomeSourcePatch struct {
		Name           *string         `json:"source_name"`
		Type           *string         `json:"source_type"`
		Description    *string         `json:"description"`
		IsRecurring    *FlexBool       `json:"is_recurring"`
		Frequency      *string         `json:"frequency"`
		ExpectedAmount Nullable[Money] `json:"expected_amount"`
		IsActive       *FlexBool       `json:"is_active"`
	}

	Budget struct {
		ID             int64   `json:"budget_id"`
		UserID         int64   `json:"user_id"`
		TrackerID      int64   `json:"tracker_id"`
		Name           string  `json:"budget_name"`
		Type           string  `json:"budget_type"`
		CategoryID     *int64  `json:"category_id"`
		CategoryName   string  `json:"category_name,omitempty"`
		CategoryIcon   string  `json:"category_icon,omitempty"`
		CategoryColor  string  `json:"category_color,omitempty"`
		Amount         Money   `json:"amount"`
		Period         string  `json:"period"`
		StartDate      Date    `json:"start_date"`
		EndDate        *Date   `json:"end_date"`
		AlertThreshold float64 `json:"alert_threshold"`
		IsActive       bool    `json:"is_active"`
		CreatedAt      string  `json:"created_at"`
	}

	// BudgetStatus is a Budget annotated with its live spending figures.
	BudgetStatus struct {
		Budget
		Spent      Money   `json:"spent"`
		Remaining  Money   `json:"remaining"`
		Percentage float64 `json:"percentage"`
	}

	BudgetInput struct {
		Name           string          `json:"budget_name"`
		Type           string          `json:"budget_type"`
		CategoryID     Nullable[int64] `json:"category_id"`
		Amount         *Money          `json:"amount"`
		Period         string          `json:"period"`
		StartDate      Date            `json:"start_date"`
		EndDate        Nullable[Date]  `json:"end_date"`
		AlertThreshold *float64        `json:"alert_threshold"`
	}

	BudgetPatch struct {
		Name           *string        `json:"budget_name"`
		Amount         *Money         `json:"amount"`
		Period         *string        `json:"period"`
		StartDate      *Date          `json:"start_date"`
		EndDate        Nullable[Date] `json:"end_date"`
		AlertThreshold *float64       `json:"alert_threshold"`
		IsActive       *FlexBool      `json:"is_active"`
	}

	// SpendQuery selects the expenses counted against a budget.
	SpendQuery struct {
		UserID     int64
		TrackerID  int64
		CategoryID *int64
		From       Date
		To         Date
	}

	BudgetAlert struct {
		BudgetID       int64   `json:"budget_id"`
		UserID         int64   `json:"user_id"`
		TrackerID      int64   `json:"tracker_id"`
		BudgetName     string  `json:"budget_name"`
		Spent          Money   `json:"spent"`
		Percentage     float64 `json:"percentage"`
		AlertThreshold float64 `json:"alert_threshold"`
		AlertedAt      string  `json:"alerted_at"`
	}

	Expense struct {
		ID              int64  `json:"transaction_id"`
		UserID          int64  `json:"user_id"`
		TrackerID       int64  `json:"tracker_id"`
		CategoryID      *int64 `json:"category_id"`
		CategoryName    string `json:"category_name,omitempty"`
		CategoryIcon    string `json:"category_icon,omitempty"`
		CategoryColor   string `json:"category_color,omitempty"`
		Amount          Money  `json:"amount"`
		TransactionDate Date   `json:"transaction_date"`
		Description     string `json:"description"`
		Notes           string `json:"notes"`
		PaymentMethod   string `json:"payment_method"`
		IsRecurring     bool   `json:"is_recurring"`
		CreatedAt       string `json:"created_at"`
	}

	Income struct {
		ID              int64  `json:"transaction_id"`
		UserID          int64  `json:"user_id"`
		TrackerID       int64  `json:"tracker_id"`
		SourceID        *int64 `json:"source_id"`
		SourceName      string `json:"source_name,omitempty"`
		SourceType      string `json:"source_type,omitempty"`
		Amount          Money  `json:"amount"`
		TransactionDate Date   `json:"transaction_date"`
		Description     string `json:"description"`
		Notes           string `json:"notes"`
		CreatedAt       string `json:"created_at"`
	}

	ExpenseInput struct {
		CategoryID      Nullable[int64] `json:"category_id"`
		Amount          *Money          `json:"amount"`
		TransactionDate Date            `json:"transaction_date"`
		Description     string          `json:"description"`
		Notes           string          `json:"notes"`
		PaymentMethod   string          `json:"payment_method"`
		IsRecurring     FlexBool        `json:"is_recurring"`
	}

	IncomeInput struct {
		SourceID        Nullable[int64] `json:"source_id"`
		Amount          *Money          `json:"amount"`
		TransactionDate Date            `json:"transaction_date"`
		Description     string          `json:"description"`
		Notes           string          `json:"notes"`
	}

	ExpensePatch struct {
		CategoryID      Nullable[int64] `json:"category_id"`
		Amount          *Money          `json:"amount"`
		TransactionDate *Date           `json:"transaction_date"`
		Description     *string         `json:"description"`
		Notes           *string         `json:"notes"`
		PaymentMethod   *string         `json:"payment_method"`
	}

	IncomePatch struct {
		SourceID        Nullable[int64] `json:"source_id"`
		Amount          *Money          `json:"amount"`
		TransactionDate *Date           `json:"transaction_date"`
		Description     *string         `json:"description"`
		Notes           *string         `json:"notes"`
	}

	// LedgerFilter narrows a transaction listing. Zero values mean "no filter".
	LedgerFilter struct {
		StartDate  *Date
		EndDate    *Date
		CategoryID *int64
		SourceID   *int64
		Limit      int
	}
)

// ValidPeriod reports whether p is one of the four budget periods.
func ValidPeriod(p string) bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodAnnually:
		return true
	}
	return false
}

func (p TrackerPatch) IsEmpty() bool {
	return p.Name == nil && p.Type == nil && p.Description == nil && p.Icon == nil && p.Color == nil
}

func (p ProfilePatch) IsEmpty() bool {
	return p.FullName == nil && p.AccountType == nil && p.ProfilePicture == nil
}

func (p IncomeSourcePatch) IsEmpty() bool {
	return p.Name == nil && p.Type == nil && p.Description == nil && p.IsRecurring == nil &&
		p.Frequency == nil && !p.ExpectedAmount.Set && p.IsActive == nil
}

func (p BudgetPatch) IsEmpty() bool {
	return p.Name == nil && p.Amount == nil && p.Period == nil && p.StartDate == nil &&
		!p.EndDate.Set && p.AlertThreshold == nil && p.IsActive == nil
}

func (p ExpensePatch) IsEmpty() bool {
	return !p.CategoryID.Set && p.Amount == nil && p.TransactionDate == nil &&
		p.Description == nil && p.Notes == nil && p.PaymentMethod == nil
}

func (p IncomePatch) IsEmpty() bool {
	return !p.SourceID.Set && p.Amount == nil && p.TransactionDate == nil &&
		p.Description == nil && p.Notes == nil
}

// Validate checks a tracker creation request.
func (in TrackerInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ValidationError("Tracker name is required")
	}
	if len(in.Name) > 100 {
		return ValidationError("Tracker name too long (max 100 characters)")
	}
	return nil
}

// WithDefaults fills optional tracker fields.
func (in TrackerInput) WithDefaults() TrackerInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.Type == "" {
		in.Type = DefaultTrackerType
	}
	if in.Icon == "" {
		in.Icon = DefaultTrackerIcon
	}
	if in.Color == "" {
		in.Color = DefaultTrackerColor
	}
	return in
}

func (in BudgetInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ValidationError("Budget name is required")
	}
	if in.Amount == nil {
		return ValidationError("Budget amount is required")
	}
	if in.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if in.StartDate.IsZero() {
		return ValidationError("Start date is required")
	}
	if in.Period != "" && !ValidPeriod(in.Period) {
		return ValidationError("Invalid budget period %q", in.Period)
	}
	if in.EndDate.Value != nil && in.EndDate.Value.Before(in.StartDate) {
		return ValidationError("End date must not be before start date")
	}
	if in.AlertThreshold != nil {
		if err := validateThreshold(*in.AlertThreshold); err != nil {
			return err
		}
	}
	return nil
}

func (in BudgetInput) WithDefaults() BudgetInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.Type == "" {
		in.Type = DefaultTrackerType
	}
	if in.Period == "" {
		in.Period = PeriodMonthly
	}
	if in.AlertThreshold == nil {
		threshold := DefaultAlertThreshold
		in.AlertThreshold = &threshold
	}
	return in
}

func (p BudgetPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ValidationError("Budget name cannot be empty")
	}
	if p.Amount != nil && p.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if p.Period != nil && !ValidPeriod(*p.Period) {
		return ValidationError("Invalid budget period %q", *p.Period)
	}
	if p.StartDate != nil && p.StartDate.IsZero() {
		return ValidationError("Start date cannot be empty")
	}
	if p.StartDate != nil && p.EndDate.Value != nil && p.EndDate.Value.Before(*p.StartDate) {
		return ValidationError("End date must not be before start date")
	}
	if p.AlertThreshold != nil {
		if err := validateThreshold(*p.AlertThreshold); err != nil {
			return err
		}
	}
	return nil
}

func validateThreshold(v float64) error {
	if v < 0 || v > 100 {
		return ValidationError("Alert threshold must be between 0 and 100")
	}
	return nil
}

func validateTransaction(amount *Money, date Date) error {
	if amount == nil {
		return ValidationError("Amount is required")
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if date.IsZero() {
		return ValidationError("Transaction date is required")
	}
	return nil
}

func (in ExpenseInput) Validate() error {
	if err := validateTransaction(in.Amount, in.TransactionDate); err != nil {
		return err
	}
	if len(in.Description) > 255 {
		return ValidationError("Description too long (max 255 characters)")
	}
	return nil
}

func (in ExpenseInput) WithDefaults() ExpenseInput {
	in.Description = strings.TrimSpace(in.Description)
	if in.PaymentMethod == "" {
		in.PaymentMethod = DefaultPaymentMethod
	}
	return in
}

func (in IncomeInput) Validate() error {
	if err := validateTransaction(in.Amount, in.TransactionDate); err != nil {
		return err
	}
	if len(in.Description) > 255 {
		return ValidationError("Description too long (max 255 characters)")
	}
	return nil
}

func validateTransactionPatch(amount *Money, date *Date) error {
	if amount != nil && !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if date != nil && date.IsZero() {
		return ValidationError("Transaction date cannot be empty")
	}
	return nil
}

func (p ExpensePatch) Validate() error {
	return validateTransactionPatch(p.Amount, p.TransactionDate)
}

func (p IncomePatch) Validate() error {
	return validateTransactionPatch(p.Amount, p.TransactionDate)
}

func (in IncomeSourceInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ValidationError("Source name is required")
	}
	if in.ExpectedAmount.Value != nil && in.ExpectedAmount.Value.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (in IncomeSourceInput) WithDefaults() IncomeSourceInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.Frequency == "" {
		in.Frequency = DefaultFrequency
	}
	return in
}

func (p IncomeSourcePatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ValidationError("Source name cannot be empty")
	}
	if p.ExpectedAmount.Value != nil && p.ExpectedAmount.Value.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ValidationError("Category name is required")
	}
	return nil
}
