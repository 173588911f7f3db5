package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case AccountGrant:
		o.printAccountGrant(v)
	case Account:
		o.printAccount(v)
	case CoinsResult:
		fmt.Fprintf(o.w, "%s\nCoins: %d\n", v.Message, v.Coins)
	case DataResult:
		o.printProfile(v.Data)
	case UpdateDataResult:
		fmt.Fprintln(o.w, v.Message)
		o.printProfile(v.UpdatedData)
	case ProductList:
		o.printProducts(v)
	case PurchaseResult:
		o.printPurchaseResult(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// AccountGrant is returned by registration and login
type AccountGrant struct {
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
	UserID   string `json:"user_id"`
	Secret   string `json:"secret"`
}

// Purchase response type
type Purchase struct {
	ID           int64     `json:"id"`
	ProductName  string    `json:"product_name"`
	PurchaseDate time.Time `json:"purchase_date"`
}

// Account response type
type Account struct {
	Username  string     `json:"username"`
	Coins     int64      `json:"coins"`
	Purchases []Purchase `json:"purchases"`
}

// CoinsResult response type
type CoinsResult struct {
	Message string `json:"message"`
	Coins   int64  `json:"coins"`
}

// DataResult response type
type DataResult struct {
	Data map[string]any `json:"data"`
}

// UpdateDataResult response type
type UpdateDataResult struct {
	Message     string         `json:"message"`
	UpdatedData map[string]any `json:"updated_data"`
}

// Product response type
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UnitAmount  int64  `json:"unit_amount"`
	Currency    string `json:"currency"`
	Recurring   *struct {
		Interval string `json:"interval"`
	} `json:"recurring,omitempty"`
}

// ProductList response type
type ProductList struct {
	Products []Product `json:"products"`
}

// PurchaseResult response type
type PurchaseResult struct {
	Message   string   `json:"message"`
	Purchase  Purchase `json:"purchase"`
	ReceiptID string   `json:"receipt_id"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printAccountGrant(g AccountGrant) {
	fmt.Fprintln(o.w, g.Message)
	if g.Username != "" {
		fmt.Fprintf(o.w, "Username: %s\n", g.Username)
	}
	fmt.Fprintf(o.w, "User ID: %s\n", g.UserID)
	fmt.Fprintf(o.w, "Secret: %s\n", g.Secret)
}

func (o *Output) printAccount(a Account) {
	fmt.Fprintf(o.w, "Username: %s\n", a.Username)
	fmt.Fprintf(o.w, "Coins: %d\n", a.Coins)
	fmt.Fprintf(o.w, "Purchases (%d):\n", len(a.Purchases))
	for _, p := range a.Purchases {
		fmt.Fprintf(o.w, "  - %s (%s)\n", p.ProductName, p.PurchaseDate.Format(time.RFC3339))
	}
}

func (o *Output) printProfile(data map[string]any) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, _ := json.Marshal(data[k])
		fmt.Fprintf(o.w, "%s: %s\n", k, v)
	}
}

func (o *Output) printProducts(l ProductList) {
	fmt.Fprintf(o.w, "Products (%d):\n", len(l.Products))
	for _, p := range l.Products {
		price := fmt.Sprintf("%d.%02d %s", p.UnitAmount/100, p.UnitAmount%100, p.Currency)
		if p.Recurring != nil {
			price += " per " + p.Recurring.Interval
		}
		fmt.Fprintf(o.w, "  - %s: %s [%s] %s\n", p.ID, p.Name, price, p.Description)
	}
}

func (o *Output) printPurchaseResult(p PurchaseResult) {
	fmt.Fprintln(o.w, p.Message)
	fmt.Fprintf(o.w, "Product: %s\n", p.Purchase.ProductName)
	fmt.Fprintf(o.w, "Charged: %d.%02d %s\n", p.Amount/100, p.Amount%100, p.Currency)
	fmt.Fprintf(o.w, "Receipt: %s\n", p.ReceiptID)
}
