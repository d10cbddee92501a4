package enums

// OrderStatus values this service emits toward the external order workflow.
// The order system owns the full status vocabulary; only the transition
// requested by the completion protocol is named here.
type OrderStatus string

const (
	OrderStatusInstallationComplete OrderStatus = "INSTALLATION_COMPLETE"
)
