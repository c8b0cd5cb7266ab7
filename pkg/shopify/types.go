package shopify

// productsResponse is one page of the Admin API product listing.
type productsResponse struct {
	Products []Product `json:"products"`
}

// Product is a raw product object as returned by the Shopify Admin API.
type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	BodyHTML    string    `json:"body_html"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Handle      string    `json:"handle"`
	Status      string    `json:"status"`
	Tags        string    `json:"tags"`
	Options     []Option  `json:"options"`
	Variants    []Variant `json:"variants"`
	Images      []Image   `json:"images"`
}

// Option is a product-level option definition (e.g. Size, Color). Its
// position links it to the variants' option1..option3 slots.
type Option struct {
	Name     string   `json:"name"`
	Position int      `json:"position"`
	Values   []string `json:"values"`
}

// Variant is a raw product variant.
type Variant struct {
	ID                int64  `json:"id"`
	ProductID         int64  `json:"product_id"`
	Title             string `json:"title"`
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	InventoryQuantity *int   `json:"inventory_quantity"`
	Available         *bool  `json:"available"`
	Option1           string `json:"option1"`
	Option2           string `json:"option2"`
	Option3           string `json:"option3"`
}

// Image is a raw product image.
type Image struct {
	ID       int64  `json:"id"`
	Src      string `json:"src"`
	Position int    `json:"position"`
}
