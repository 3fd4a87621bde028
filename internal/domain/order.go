package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Status represents the lifecycle state of a fabrication order.
type Status string

const (
	StatusNeedsRework      Status = "NFW"
	StatusCuratorReview    Status = "OVK"
	StatusExecutorReview   Status = "OVC"
	StatusAccepted         Status = "OA"
	StatusContractCustomer Status = "SA"
	StatusContractCurator  Status = "CSA"
	StatusContractExecutor Status = "ESA"
	StatusGDSCustomer      Status = "OGDS"
	StatusGDSCurator       Status = "CGDS"
	StatusGDSExecutor      Status = "EGDS"
	StatusPaymentPending   Status = "PO"
	StatusPaymentCurator   Status = "POK"
	StatusPaymentExecutor  Status = "POC"
	StatusProduction       Status = "MPO"
	StatusTemplates        Status = "MTP"
	StatusPlates           Status = "MPP"
	StatusParamMonitor     Status = "MPM"
	StatusCutting          Status = "MCP"
	StatusPacking          Status = "MPOP"
	StatusShipped          Status = "SO"
	StatusPlatesSent       Status = "PS"
	StatusReceipt          Status = "CR"
	StatusCompleted        Status = "EO"
)

// InitialStatus is assigned to every newly created order.
const InitialStatus = StatusCuratorReview

// Statuses lists every member of the enumeration in lifecycle order.
var Statuses = []Status{
	StatusNeedsRework,
	StatusCuratorReview,
	StatusExecutorReview,
	StatusAccepted,
	StatusContractCustomer,
	StatusContractCurator,
	StatusContractExecutor,
	StatusGDSCustomer,
	StatusGDSCurator,
	StatusGDSExecutor,
	StatusPaymentPending,
	StatusPaymentCurator,
	StatusPaymentExecutor,
	StatusProduction,
	StatusTemplates,
	StatusPlates,
	StatusParamMonitor,
	StatusCutting,
	StatusPacking,
	StatusShipped,
	StatusPlatesSent,
	StatusReceipt,
	StatusCompleted,
}

var statusLabels = map[Status]string{
	StatusNeedsRework:      "Needs rework",
	StatusCuratorReview:    "Curator review",
	StatusExecutorReview:   "Executor review",
	StatusAccepted:         "Accepted",
	StatusContractCustomer: "Contract signing: customer",
	StatusContractCurator:  "Contract signing: curator",
	StatusContractExecutor: "Contract signing: executor",
	StatusGDSCustomer:      "GDS upload: customer",
	StatusGDSCurator:       "GDS upload: curator check",
	StatusGDSExecutor:      "GDS upload: executor check",
	StatusPaymentPending:   "Payment pending",
	StatusPaymentCurator:   "Payment confirmed by curator",
	StatusPaymentExecutor:  "Payment confirmed by executor",
	StatusProduction:       "Production",
	StatusTemplates:        "Production: templates",
	StatusPlates:           "Production: plates",
	StatusParamMonitor:     "Production: parametric monitor measurement",
	StatusCutting:          "Production: plate cutting",
	StatusPacking:          "Production: plate packing",
	StatusShipped:          "Shipped",
	StatusPlatesSent:       "Plates sent",
	StatusReceipt:          "Receipt confirmation",
	StatusCompleted:        "Completed",
}

// Valid reports whether s is a member of the enumeration.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human-readable name used in chat messages.
// Unknown codes are returned verbatim.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStatus converts a stored or user-supplied code into a Status.
func ParseStatus(code string) (Status, error) {
	s := Status(code)
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", code)
	}
	return s, nil
}

// AttachmentKind names a document whose presence gates some transitions.
type AttachmentKind string

const (
	AttachmentContract AttachmentKind = "contract"
	AttachmentInvoice  AttachmentKind = "invoice"
	AttachmentGDS      AttachmentKind = "gds"
)

// Attachments records which documents have been uploaded for an order.
// The files themselves live with the upload collaborator.
type Attachments struct {
	Contract bool
	Invoice  bool
	GDS      bool
}

// Has reports whether the given document is present.
func (a Attachments) Has(kind AttachmentKind) bool {
	switch kind {
	case AttachmentContract:
		return a.Contract
	case AttachmentInvoice:
		return a.Invoice
	case AttachmentGDS:
		return a.GDS
	}
	return false
}

// With returns a copy with the presence of kind set to present.
func (a Attachments) With(kind AttachmentKind, present bool) Attachments {
	switch kind {
	case AttachmentContract:
		a.Contract = present
	case AttachmentInvoice:
		a.Invoice = present
	case AttachmentGDS:
		a.GDS = present
	}
	return a
}

// ParseAttachmentKind validates a document kind.
func ParseAttachmentKind(s string) (AttachmentKind, error) {
	switch k := AttachmentKind(s); k {
	case AttachmentContract, AttachmentInvoice, AttachmentGDS:
		return k, nil
	}
	return "", fmt.Errorf("unknown attachment kind %q", s)
}

// Order is the workflow subject: a fabrication run placed by a customer
// and produced at one executor platform.
type Order struct {
	ID            int64
	Number        string
	Status        Status
	CreatorID     int64
	PlatformCode  string
	MaskName      string
	Paid          bool
	ContractReady bool
	Attachments   Attachments
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// NewOrder creates an order in the initial review state. ID and Number
// are assigned by the repository on insert.
func NewOrder(creatorID int64, platformCode, maskName string) Order {
	now := time.Now().UTC()
	return Order{
		Status:       InitialStatus,
		CreatorID:    creatorID,
		PlatformCode: platformCode,
		MaskName:     maskName,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

const (
	orderNumberPrefix  = "F"
	orderNumberDay     = "20060102"
	orderNumberSeqLen  = 5
	maxOrderNumberSeq  = 99999
	orderNumberDateLen = len(orderNumberDay)
)

// OrderNumberPrefix returns the per-day prefix shared by all order numbers
// issued on day, e.g. "F20261016".
func OrderNumberPrefix(day time.Time) string {
	return orderNumberPrefix + day.UTC().Format(orderNumberDay)
}

// FormatOrderNumber builds the human-readable number for the seq-th order of day.
func FormatOrderNumber(day time.Time, seq int) (string, error) {
	if seq < 1 || seq > maxOrderNumberSeq {
		return "", fmt.Errorf("order sequence %d out of range", seq)
	}
	return fmt.Sprintf("%s%0*d", OrderNumberPrefix(day), orderNumberSeqLen, seq), nil
}

// ParseOrderNumber splits an order number into its day and sequence.
func ParseOrderNumber(number string) (time.Time, int, error) {
	want := len(orderNumberPrefix) + orderNumberDateLen + orderNumberSeqLen
	if len(number) != want || number[:len(orderNumberPrefix)] != orderNumberPrefix {
		return time.Time{}, 0, fmt.Errorf("malformed order number %q", number)
	}

	rest := number[len(orderNumberPrefix):]
	day, err := time.Parse(orderNumberDay, rest[:orderNumberDateLen])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("malformed order number %q: %w", number, err)
	}

	seq, err := strconv.Atoi(rest[orderNumberDateLen:])
	if err != nil || seq < 1 {
		return time.Time{}, 0, fmt.Errorf("malformed order number %q", number)
	}
	return day, seq, nil
}
