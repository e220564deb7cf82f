package domain

type ProductCategory string

const (
	CategoryGrocery     ProductCategory = "grocery"
	CategoryElectronics ProductCategory = "electronics"
	CategoryClothing    ProductCategory = "clothing"
	CategoryPharmacy    ProductCategory = "pharmacy"
	CategoryAlcohol     ProductCategory = "alcohol"
	CategoryOther       ProductCategory = "other"
)

func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryGrocery, CategoryElectronics, CategoryClothing,
		CategoryPharmacy, CategoryAlcohol, CategoryOther:
		return true
	}
	return false
}

type ProductStatus string

const (
	ProductActive       ProductStatus = "active"
	ProductDiscontinued ProductStatus = "discontinued"
	ProductOutOfStock   ProductStatus = "out_of_stock"
	ProductRecalled     ProductStatus = "recalled"
)

type AgeRestriction string

const (
	AgeNone AgeRestriction = "none"
	Age18   AgeRestriction = "18+"
	Age21   AgeRestriction = "21+"
)

// RequiredAge maps a restriction to the minimum purchaser age.
func (a AgeRestriction) RequiredAge() int {
	switch a {
	case Age18:
		return 18
	case Age21:
		return 21
	}
	return 0
}

type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "credit_card"
	MethodDebitCard  PaymentMethod = "debit_card"
	MethodCash       PaymentMethod = "cash"
	MethodMobilePay  PaymentMethod = "mobile_pay"
	MethodGiftCard   PaymentMethod = "gift_card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodCash, MethodMobilePay, MethodGiftCard:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

type TransactionStatus string

const (
	TxnInProgress TransactionStatus = "in_progress"
	TxnCompleted  TransactionStatus = "completed"
	TxnCancelled  TransactionStatus = "cancelled"
	TxnSuspended  TransactionStatus = "suspended"
)

type Product struct {
	ID             string          `db:"id" json:"id"`
	Barcode        string          `db:"barcode" json:"barcode"`
	SKU            string          `db:"sku" json:"sku"`
	Name           string          `db:"name" json:"name"`
	Description    string          `db:"description" json:"description,omitempty"`
	Category       ProductCategory `db:"category" json:"category"`
	Status         ProductStatus   `db:"status" json:"status"`
	AgeRestriction AgeRestriction  `db:"age_restriction" json:"age_restriction"`
	CurrentPrice   float64         `db:"current_price" json:"current_price"`
	TaxRate        float64         `db:"tax_rate" json:"tax_rate"`
	CreatedAt      string          `db:"created_at" json:"created_at"`
	UpdatedAt      string          `db:"updated_at" json:"updated_at,omitempty"`
}

type StockRecord struct {
	ProductID         string `db:"product_id" json:"product_id"`
	Quantity          int    `db:"quantity" json:"quantity"`
	LowStockThreshold int    `db:"low_stock_threshold" json:"low_stock_threshold"`
	ReorderThreshold  int    `db:"reorder_threshold" json:"reorder_threshold"`
	LastRestocked     string `db:"last_restocked" json:"last_restocked,omitempty"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

type Cart struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id,omitempty"`
	SessionID string `db:"session_id" json:"session_id,omitempty"`
	IsActive  bool   `db:"is_active" json:"is_active"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`

	Items []CartItem `json:"items,omitempty"`
}

type CartItem struct {
	ID              string  `db:"id" json:"id"`
	CartID          string  `db:"cart_id" json:"cart_id"`
	ProductID       string  `db:"product_id" json:"product_id"`
	Quantity        int     `db:"quantity" json:"quantity"`
	PriceAtAddition float64 `db:"price_at_addition" json:"price_at_addition"`
	IsAgeVerified   bool    `db:"is_age_verified" json:"is_age_verified"`
	AddedAt         string  `db:"added_at" json:"added_at"`

	// Joined from products for totals and age checks.
	ProductName    string         `db:"name" json:"product_name,omitempty"`
	TaxRate        float64        `db:"tax_rate" json:"tax_rate,omitempty"`
	AgeRestriction AgeRestriction `db:"age_restriction" json:"age_restriction,omitempty"`
}

type CartTotals struct {
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"item_count"`
}

type Transaction struct {
	ID            string            `db:"id" json:"id"`
	UserID        string            `db:"user_id" json:"user_id,omitempty"`
	CartID        string            `db:"cart_id" json:"cart_id"`
	Status        TransactionStatus `db:"status" json:"status"`
	Subtotal      float64           `db:"subtotal" json:"subtotal"`
	TaxAmount     float64           `db:"tax_amount" json:"tax_amount"`
	TotalAmount   float64           `db:"total_amount" json:"total_amount"`
	PaymentMethod PaymentMethod     `db:"payment_method" json:"payment_method,omitempty"`
	PaymentStatus PaymentStatus     `db:"payment_status" json:"payment_status"`
	CreatedAt     string            `db:"created_at" json:"created_at"`
	CompletedAt   string            `db:"completed_at" json:"completed_at,omitempty"`

	Items []TransactionItem `json:"items,omitempty"`
}

type TransactionItem struct {
	ID             string  `db:"id" json:"id"`
	TransactionID  string  `db:"transaction_id" json:"transaction_id"`
	ProductID      string  `db:"product_id" json:"product_id"`
	Quantity       int     `db:"quantity" json:"quantity"`
	Price          float64 `db:"price" json:"price"`
	TaxRate        float64 `db:"tax_rate" json:"tax_rate"`
	WasAgeVerified bool    `db:"was_age_verified" json:"was_age_verified"`
}

type Payment struct {
	ID                 string        `db:"id" json:"id"`
	TransactionID      string        `db:"transaction_id" json:"transaction_id"`
	Amount             float64       `db:"amount" json:"amount"`
	Method             PaymentMethod `db:"method" json:"method"`
	Status             PaymentStatus `db:"status" json:"status"`
	ProcessorReference string        `db:"processor_reference" json:"processor_reference,omitempty"`
	LastFour           string        `db:"last_four" json:"last_four,omitempty"`
	ReceiptNumber      string        `db:"receipt_number" json:"receipt_number,omitempty"`
	CreatedAt          string        `db:"created_at" json:"created_at"`
	ProcessedAt        string        `db:"processed_at" json:"processed_at,omitempty"`
}
