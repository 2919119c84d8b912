package events

// Topic constants for domain events emitted by the inventory.
const (
	TopicProductCreated = "product.created"
	TopicProductDeleted = "product.deleted"
	TopicStockUpdated   = "stock.updated"
	TopicStockLow       = "stock.low"
	TopicStockDepleted  = "stock.depleted"
)

// DefaultTopics returns the canonical list of topics.
func DefaultTopics() []string {
	return []string{
		TopicProductCreated,
		TopicProductDeleted,
		TopicStockUpdated,
		TopicStockLow,
		TopicStockDepleted,
	}
}

// AlertTopics returns the topics that should raise a stock alert.
func AlertTopics() []string {
	return []string{TopicStockLow, TopicStockDepleted}
}
