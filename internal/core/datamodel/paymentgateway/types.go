package paymentgateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Gateway-native status values.
const (
	InitStatusSuccess = "SUCCESS"
	InitStatusFailed  = "FAILED"

	ValidationValid     = "VALID"
	ValidationValidated = "VALIDATED"
	ValidationInvalid   = "INVALID_TRANSACTION"

	CallbackStatusValid     = "VALID"
	CallbackStatusFailed    = "FAILED"
	CallbackStatusCancelled = "CANCELLED"
)

type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Country string
}

type InitiateRequest struct {
	TransactionID   string
	Amount          decimal.Decimal
	Currency        string
	ProductName     string
	ProductCategory string
	Customer        Customer
}

func (r *InitiateRequest) Validate() error {
	if r.TransactionID == "" {
		return errors.New("transaction id is required")
	}
	if !r.Amount.IsPositive() {
		return errors.New("amount must be greater than 0")
	}
	if r.Currency == "" {
		return errors.New("currency is required")
	}
	if r.Customer.Email == "" {
		return errors.New("customer email is required")
	}
	return nil
}

type InitiateResult struct {
	RedirectURL string
	StoreID     string
	SessionKey  string
	Raw         json.RawMessage
}

type ValidationResult struct {
	Valid    bool
	Status   string
	TranID   string
	Amount   decimal.Decimal
	Currency string
	Raw      json.RawMessage
}

// RejectedError is a business refusal returned by the gateway, as opposed to
// a transport failure. Reason is safe to show to the caller.
type RejectedError struct {
	Reason string
	Raw    json.RawMessage
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("gateway rejected request: %s", e.Reason)
}

// InitiateResponse is the JSON body of the session API.
type InitiateResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
	StoreBanner    string `json:"storeBanner,omitempty"`
	StoreLogo      string `json:"storeLogo,omitempty"`
}

// ValidationResponse is the JSON body of the order validation API.
type ValidationResponse struct {
	Status      string `json:"status"`
	TranDate    string `json:"tran_date"`
	TranID      string `json:"tran_id"`
	ValID       string `json:"val_id"`
	Amount      string `json:"amount"`
	StoreAmount string `json:"store_amount"`
	Currency    string `json:"currency"`
	BankTranID  string `json:"bank_tran_id"`
	CardType    string `json:"card_type"`
	RiskLevel   string `json:"risk_level"`
	RiskTitle   string `json:"risk_title"`
}
