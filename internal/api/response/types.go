package response

import (
	"time"

	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/services/account"
	"github.com/mcoot/gameshop/internal/services/catalog"
)

// Success messages
const (
	MessageAccountCreated = "Account created successfully"
	MessageLoginSuccess   = "Login successful"
	MessageCoinsUpdated   = "Coins updated successfully"
	MessageDataUpdated    = "Data updated successfully"
	MessagePurchased      = "Purchase completed successfully"
)

// IndexResponse identifies the service
type IndexResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse reports service health
type HealthResponse struct {
	Status string `json:"status"`
}

// CreateAccountResponse is returned after registration
type CreateAccountResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Secret  string `json:"secret"`
}

// CreateAccountResponseFromGrant converts a registration grant
func CreateAccountResponseFromGrant(g *account.Grant) CreateAccountResponse {
	return CreateAccountResponse{
		Message: MessageAccountCreated,
		UserID:  string(g.IdentityID),
		Secret:  g.Secret,
	}
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	Secret   string `json:"secret"`
}

// LoginResponseFromGrant converts a login grant
func LoginResponseFromGrant(g *account.Grant) LoginResponse {
	return LoginResponse{
		Message:  MessageLoginSuccess,
		Username: g.Username,
		UserID:   string(g.IdentityID),
		Secret:   g.Secret,
	}
}

// Purchase represents a purchase record in API responses
type Purchase struct {
	ID           int64     `json:"id"`
	ProductName  string    `json:"product_name"`
	PurchaseDate time.Time `json:"purchase_date"`
}

// PurchaseFromModel converts a model.Purchase to a response Purchase
func PurchaseFromModel(p *model.Purchase) Purchase {
	return Purchase{
		ID:           int64(p.ID),
		ProductName:  p.ProductName,
		PurchaseDate: p.PurchaseDate,
	}
}

// AccountResponse is the account summary
type AccountResponse struct {
	Username  string     `json:"username"`
	Coins     int64      `json:"coins"`
	Purchases []Purchase `json:"purchases"`
}

// AccountResponseFromSummary converts an account summary
func AccountResponseFromSummary(s *account.Summary) AccountResponse {
	purchases := make([]Purchase, 0, len(s.Purchases))
	for _, p := range s.Purchases {
		purchases = append(purchases, PurchaseFromModel(p))
	}
	return AccountResponse{
		Username:  s.Username,
		Coins:     s.Coins,
		Purchases: purchases,
	}
}

// CoinsResponse is returned after a coin mutation
type CoinsResponse struct {
	Message string `json:"message"`
	Coins   int64  `json:"coins"`
}

// DataResponse carries the profile document
type DataResponse struct {
	Data model.Profile `json:"data"`
}

// UpdateDataResponse is returned after a profile write
type UpdateDataResponse struct {
	Message     string        `json:"message"`
	UpdatedData model.Profile `json:"updated_data"`
}

// ProductsResponse lists the catalog
type ProductsResponse struct {
	Products []catalog.Product `json:"products"`
}

// PurchaseResponse is returned after a completed purchase
type PurchaseResponse struct {
	Message   string   `json:"message"`
	Purchase  Purchase `json:"purchase"`
	ReceiptID string   `json:"receipt_id"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency"`
}

// PurchaseResponseFromReceipt combines a recorded purchase with its charge
func PurchaseResponseFromReceipt(p *model.Purchase, r *catalog.Receipt) PurchaseResponse {
	return PurchaseResponse{
		Message:   MessagePurchased,
		Purchase:  PurchaseFromModel(p),
		ReceiptID: r.ID,
		Amount:    r.Amount,
		Currency:  r.Currency,
	}
}
