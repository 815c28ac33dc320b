package domain

// Product is the read-only projection served by the catalog gateway.
type Product struct {
	ID            int64
	Name          string
	CategoryID    int64
	CategoryName  string
	BrandID       *int64
	BrandName     string
	IsActive      bool
	RatingAverage float64
	SalesCount    int64
}

// ProductFilter narrows ListActiveProducts. Zero values mean "no restriction".
// Results are ordered by rating, then sales, then id.
type ProductFilter struct {
	IDs        []int64
	CategoryID *int64
	// SharesWith keeps products in the same category or brand as this product.
	SharesWith *Product
	ExcludeIDs []int64
	Limit      int
}

// OrderItem is one line item of a delivered order.
type OrderItem struct {
	OrderID   int64
	ProductID int64
}
