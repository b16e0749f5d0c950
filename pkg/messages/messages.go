// Package messages defines the JSON payloads exchanged over queues.
package messages

// Queue names shared between publishers and consumers.
const (
	QueueConfirmationsEmail = "confirmations_email"
	QueueConfirmationsPhone = "confirmations_phone"
	QueueProductsImport     = "products_import"
)

// Confirmation asks a worker to deliver a confirmation link to a user.
// Login is the email address or phone number the registration used.
type Confirmation struct {
	Login string `json:"login"`
	URL   string `json:"url"`
}

// Product is a single catalog item in an import batch.
type Product struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Category string `json:"category"`
}

// ProductBatch is a set of products to upsert into the catalog.
type ProductBatch struct {
	Products []Product `json:"products"`
}
