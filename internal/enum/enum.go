package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending    = "PENDING"
	OrderStatusAccepted   = "ACCEPTED"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusReady      = "READY"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	CateringStatusPendingPayment = "PENDING_PAYMENT"
	CateringStatusConfirmed      = "CONFIRMED"
	CateringStatusCancelled      = "CANCELLED"
)

const (
	PaymentStatusUnpaid = "UNPAID"
	PaymentStatusPaid   = "PAID"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleStudent = "student"
	UserRoleFaculty = "faculty"
	UserRoleStaff   = "staff"
	UserRoleAdmin   = "admin"
)

const (
	PaymentTargetOrder    = "ORDER"
	PaymentTargetCatering = "CATERING"
)

const (
	PaymentMethodGCash   = "GCASH"
	PaymentMethodMaya    = "MAYA"
	PaymentMethodCounter = "COUNTER"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	NotificationTypeNew  = "new"
	NotificationTypeSold = "sold"
)

const (
	CateringPaymentKindDown      = "DOWN_PAYMENT"
	CateringPaymentKindRemaining = "REMAINING"
)
