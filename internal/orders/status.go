package orders

type ParcelStatus string

const (
	ParcelCreated     ParcelStatus = "Created"
	ParcelInTransit   ParcelStatus = "In_Transit"
	ParcelPickUpReady ParcelStatus = "PickUp_Ready"
	ParcelDelivered   ParcelStatus = "Delivered"
	ParcelLost        ParcelStatus = "Lost"
	ParcelArchived    ParcelStatus = "Archived"
)

// ParcelStatuses lists every parcel status in declaration order.
var ParcelStatuses = []ParcelStatus{
	ParcelCreated, ParcelInTransit, ParcelPickUpReady, ParcelDelivered, ParcelLost, ParcelArchived,
}

// Lower rank = more actionable for the owner.
var parcelRank = map[ParcelStatus]int{
	ParcelPickUpReady: 0,
	ParcelInTransit:   1,
	ParcelLost:        2,
	ParcelCreated:     3,
	ParcelDelivered:   4,
	ParcelArchived:    5,
}

// UnrankedStatus is the rank of an unknown status and of an order without parcels.
const UnrankedStatus = 99

func (s ParcelStatus) Rank() int {
	if r, ok := parcelRank[s]; ok {
		return r
	}
	return UnrankedStatus
}

func (s ParcelStatus) Valid() bool {
	_, ok := parcelRank[s]
	return ok
}

// Done reports whether the parcel needs no further attention.
func (s ParcelStatus) Done() bool {
	return s == ParcelDelivered || s == ParcelArchived
}

var parcelLabels = map[ParcelStatus]string{
	ParcelCreated:     "Created",
	ParcelInTransit:   "In transit",
	ParcelPickUpReady: "Ready for pickup",
	ParcelDelivered:   "Delivered",
	ParcelLost:        "Lost",
	ParcelArchived:    "Archived",
}

func (s ParcelStatus) Label() string {
	if l, ok := parcelLabels[s]; ok {
		return l
	}
	return string(s)
}

type ItemStatus string

const (
	ItemWaitingPayment      ItemStatus = "Waiting_Payment"
	ItemPaymentVerification ItemStatus = "Payment_Verification"
	ItemSellerPacking       ItemStatus = "Seller_Packing"
	ItemPartiallyShipped    ItemStatus = "Partially_Shipped"
	ItemShipped             ItemStatus = "Shipped"
	ItemPartiallyReceived   ItemStatus = "Partially_Received"
	ItemReceived            ItemStatus = "Received"
	ItemCancelled           ItemStatus = "Cancelled"
	ItemDisputeOpen         ItemStatus = "Dispute_Open"
	ItemRefunded            ItemStatus = "Refunded"
	// Deprecated: shown as Seller_Packing.
	ItemWaitingShipment ItemStatus = "Waiting_Shipment"
)

var itemLabels = map[ItemStatus]string{
	ItemWaitingPayment:      "Waiting for payment",
	ItemPaymentVerification: "Payment verification",
	ItemSellerPacking:       "Seller packing",
	ItemPartiallyShipped:    "Partially shipped",
	ItemShipped:             "Shipped",
	ItemPartiallyReceived:   "Partially received",
	ItemReceived:            "Received",
	ItemCancelled:           "Cancelled",
	ItemDisputeOpen:         "Dispute open",
	ItemRefunded:            "Refunded",
	ItemWaitingShipment:     "Seller packing",
}

func (s ItemStatus) Valid() bool {
	_, ok := itemLabels[s]
	return ok
}

func (s ItemStatus) Label() string {
	if l, ok := itemLabels[s]; ok {
		return l
	}
	return string(s)
}
