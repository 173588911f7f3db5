package request

// CreateAccountRequest is the request body for registering an account
type CreateAccountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateCoinsRequest is the request body for adding or deducting coins
type UpdateCoinsRequest struct {
	UserID string `json:"user_id"`
	Secret string `json:"secret"`
	Action string `json:"action"`
	Amount int64  `json:"amount"`
}

// UpdateDataRequest is the request body for merging profile data
type UpdateDataRequest struct {
	UserID string         `json:"user_id"`
	Secret string         `json:"secret"`
	Data   map[string]any `json:"data"`
}

// CreateProductRequest is the request body for adding a catalog product
type CreateProductRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Recurrence  string            `json:"recurrence,omitempty"`
	TaxBehavior string            `json:"tax_behavior,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// PurchaseRequest is the request body for buying a product
type PurchaseRequest struct {
	UserID    string `json:"user_id"`
	Secret    string `json:"secret"`
	ProductID string `json:"product_id"`
}
