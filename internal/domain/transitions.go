package domain

// Action names an operation a caller requests on an order.
type Action string

// Generic actions resolve to the single forward or backward rule of the
// current status for the acting role.
const (
	ActionAdvance Action = "advance"
	ActionRevert  Action = "revert"
)

// Topology review loop.
const (
	ActionResubmitTopology Action = "resubmit_topology"
	ActionApprove          Action = "approve"
	ActionRequestRework    Action = "request_rework"
	ActionAcceptTopology   Action = "accept_topology"
	ActionReturnTopology   Action = "return_topology"
	ActionRequestContract  Action = "request_contract"
)

// Contract signing.
const (
	ActionSignAgreement    Action = "sign_agreement"
	ActionConfirmAgreement Action = "confirm_agreement"
	ActionRejectAgreement  Action = "reject_agreement"
	ActionAcceptAgreement  Action = "accept_agreement"
	ActionReturnAgreement  Action = "return_agreement"
)

// GDS upload.
const (
	ActionUploadGDS  Action = "upload_gds"
	ActionConfirmGDS Action = "confirm_gds"
	ActionRejectGDS  Action = "reject_gds"
	ActionAcceptGDS  Action = "accept_gds"
	ActionReturnGDS  Action = "return_gds"
)

// Payment.
const (
	ActionMarkPaid       Action = "mark_paid"
	ActionConfirmPayment Action = "confirm_payment"
	ActionRejectPayment  Action = "reject_payment"
	ActionAcceptPayment  Action = "accept_payment"
	ActionReturnPayment  Action = "return_payment"
	ActionCancelPayment  Action = "cancel_payment"
)

// Production and delivery.
const (
	ActionStartProduction   Action = "start_production"
	ActionSendPlates        Action = "send_plates"
	ActionConfirmShipment   Action = "confirm_shipment"
	ActionReturnShipment    Action = "return_shipment"
	ActionConfirmReceipt    Action = "confirm_receipt"
	ActionReportNotReceived Action = "report_not_received"
)

// Generic reports whether a resolves by direction rather than by name.
func (a Action) Generic() bool {
	return a == ActionAdvance || a == ActionRevert
}

// Direction tells whether a rule moves an order forward or sends it back.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// Precondition gates a forward rule on auxiliary order data.
type Precondition string

const (
	PreconditionNone          Precondition = ""
	PreconditionContractFile  Precondition = "contract_file"
	PreconditionGDSFile       Precondition = "gds_file"
	PreconditionInvoiceFile   Precondition = "invoice_file"
	PreconditionContractReady Precondition = "contract_ready"
)

// Satisfied reports whether order meets the precondition.
func (p Precondition) Satisfied(order Order) bool {
	switch p {
	case PreconditionNone:
		return true
	case PreconditionContractFile:
		return order.Attachments.Has(AttachmentContract)
	case PreconditionGDSFile:
		return order.Attachments.Has(AttachmentGDS)
	case PreconditionInvoiceFile:
		return order.Attachments.Has(AttachmentInvoice)
	case PreconditionContractReady:
		return order.ContractReady
	}
	return false
}

// Reason is the machine-readable code reported on a soft reject.
func (p Precondition) Reason() string {
	switch p {
	case PreconditionContractFile:
		return "missing_contract_file"
	case PreconditionGDSFile:
		return "missing_gds_file"
	case PreconditionInvoiceFile:
		return "missing_invoice_file"
	case PreconditionContractReady:
		return "contract_not_ready"
	}
	return ""
}

// FileMissing reports whether the precondition concerns an attached document.
func (p Precondition) FileMissing() bool {
	switch p {
	case PreconditionContractFile, PreconditionGDSFile, PreconditionInvoiceFile:
		return true
	}
	return false
}

// Rule is one legal move: Role may apply Action to an order in From,
// moving it to To once Precondition holds.
type Rule struct {
	From         Status
	Action       Action
	Direction    Direction
	To           Status
	Role         Role
	Precondition Precondition
}

// Event is the unique name of the rule within its source status.
func (r Rule) Event() string {
	return string(r.Action) + ":" + string(r.Role)
}

// handoff describes one customer -> curator -> executor phase.
type handoff struct {
	Customer, Curator, Executor, Next Status

	Submit, Confirm, Reject, Accept, Return Action

	SubmitNeeds, ConfirmNeeds Precondition
}

// rules expands the phase: the customer submits, the curator confirms or
// bounces back to the customer, the executor accepts into the next phase
// or bounces back to the curator.
func (h handoff) rules() []Rule {
	return []Rule{
		{From: h.Customer, Action: h.Submit, Direction: Forward, To: h.Curator, Role: RoleCustomer, Precondition: h.SubmitNeeds},
		{From: h.Curator, Action: h.Confirm, Direction: Forward, To: h.Executor, Role: RoleCurator, Precondition: h.ConfirmNeeds},
		{From: h.Curator, Action: h.Reject, Direction: Backward, To: h.Customer, Role: RoleCurator},
		{From: h.Executor, Action: h.Accept, Direction: Forward, To: h.Next, Role: RoleExecutor},
		{From: h.Executor, Action: h.Return, Direction: Backward, To: h.Curator, Role: RoleExecutor},
	}
}

var (
	contractPhase = handoff{
		Customer: StatusContractCustomer, Curator: StatusContractCurator, Executor: StatusContractExecutor,
		Next:   StatusGDSCustomer,
		Submit: ActionSignAgreement, Confirm: ActionConfirmAgreement, Reject: ActionRejectAgreement,
		Accept: ActionAcceptAgreement, Return: ActionReturnAgreement,
		SubmitNeeds: PreconditionContractFile,
	}

	gdsPhase = handoff{
		Customer: StatusGDSCustomer, Curator: StatusGDSCurator, Executor: StatusGDSExecutor,
		Next:   StatusPaymentPending,
		Submit: ActionUploadGDS, Confirm: ActionConfirmGDS, Reject: ActionRejectGDS,
		Accept: ActionAcceptGDS, Return: ActionReturnGDS,
		SubmitNeeds: PreconditionGDSFile, ConfirmNeeds: PreconditionGDSFile,
	}

	paymentPhase = handoff{
		Customer: StatusPaymentPending, Curator: StatusPaymentCurator, Executor: StatusPaymentExecutor,
		Next:   StatusProduction,
		Submit: ActionMarkPaid, Confirm: ActionConfirmPayment, Reject: ActionRejectPayment,
		Accept: ActionAcceptPayment, Return: ActionReturnPayment,
		ConfirmNeeds: PreconditionInvoiceFile,
	}
)

// ProductionStages is the executor-only linear segment between MPO and SO.
var ProductionStages = []Status{
	StatusTemplates,
	StatusPlates,
	StatusParamMonitor,
	StatusCutting,
	StatusPacking,
}

// linear builds advance/revert pairs for a chain entered from before and
// left into after.
func linear(before Status, chain []Status, after Status, role Role) []Rule {
	out := make([]Rule, 0, 2*len(chain))
	for i, s := range chain {
		prev, next := before, after
		if i > 0 {
			prev = chain[i-1]
		}
		if i < len(chain)-1 {
			next = chain[i+1]
		}
		out = append(out,
			Rule{From: s, Action: ActionAdvance, Direction: Forward, To: next, Role: role},
			Rule{From: s, Action: ActionRevert, Direction: Backward, To: prev, Role: role},
		)
	}
	return out
}

// Rules is the complete transition table. EO has no outgoing rule.
var Rules = buildRules()

func buildRules() []Rule {
	rules := []Rule{
		{From: StatusNeedsRework, Action: ActionResubmitTopology, Direction: Forward, To: StatusCuratorReview, Role: RoleCustomer},
		{From: StatusCuratorReview, Action: ActionApprove, Direction: Forward, To: StatusExecutorReview, Role: RoleCurator},
		{From: StatusCuratorReview, Action: ActionRequestRework, Direction: Backward, To: StatusNeedsRework, Role: RoleCurator},
		{From: StatusExecutorReview, Action: ActionAcceptTopology, Direction: Forward, To: StatusAccepted, Role: RoleExecutor},
		{From: StatusExecutorReview, Action: ActionReturnTopology, Direction: Backward, To: StatusCuratorReview, Role: RoleExecutor},
		{From: StatusAccepted, Action: ActionRequestContract, Direction: Forward, To: StatusContractCustomer, Role: RoleCustomer, Precondition: PreconditionContractReady},
	}

	rules = append(rules, contractPhase.rules()...)
	rules = append(rules, gdsPhase.rules()...)
	// A curator may confirm a GDS file that is already attached without
	// waiting for the customer to submit it.
	rules = append(rules, Rule{
		From: StatusGDSCustomer, Action: ActionConfirmGDS, Direction: Forward,
		To: StatusGDSExecutor, Role: RoleCurator, Precondition: PreconditionGDSFile,
	})

	rules = append(rules, paymentPhase.rules()...)
	// The customer may withdraw a payment mark until the curator confirms it.
	rules = append(rules, Rule{
		From: StatusPaymentCurator, Action: ActionCancelPayment, Direction: Backward,
		To: StatusPaymentPending, Role: RoleCustomer,
	})

	rules = append(rules, Rule{
		From: StatusProduction, Action: ActionStartProduction, Direction: Forward,
		To: StatusTemplates, Role: RoleExecutor,
	})
	rules = append(rules, linear(StatusProduction, ProductionStages, StatusShipped, RoleExecutor)...)

	rules = append(rules,
		Rule{From: StatusShipped, Action: ActionSendPlates, Direction: Forward, To: StatusPlatesSent, Role: RoleExecutor},
		Rule{From: StatusPlatesSent, Action: ActionConfirmShipment, Direction: Forward, To: StatusReceipt, Role: RoleCurator},
		Rule{From: StatusPlatesSent, Action: ActionReturnShipment, Direction: Backward, To: StatusShipped, Role: RoleCurator},
		Rule{From: StatusReceipt, Action: ActionConfirmReceipt, Direction: Forward, To: StatusCompleted, Role: RoleCustomer},
		Rule{From: StatusReceipt, Action: ActionReportNotReceived, Direction: Backward, To: StatusPlatesSent, Role: RoleCustomer},
	)

	return rules
}

var rulesByStatus = indexRules(Rules)

func indexRules(rules []Rule) map[Status][]Rule {
	idx := make(map[Status][]Rule)
	for _, r := range rules {
		idx[r.From] = append(idx[r.From], r)
	}
	return idx
}

// RulesFrom returns every rule leaving s.
func RulesFrom(s Status) []Rule {
	return rulesByStatus[s]
}

// Candidates returns the rules at s that action can select. Named actions
// match by name; advance and revert match by direction.
func Candidates(s Status, action Action) []Rule {
	var out []Rule
	for _, r := range rulesByStatus[s] {
		if matches(r, action) {
			out = append(out, r)
		}
	}
	return out
}

// Resolve picks the candidate rule for role. ok is false when no rule at s
// matches action, found is false when rules exist but none belongs to role.
func Resolve(s Status, action Action, role Role) (rule Rule, ok, found bool) {
	candidates := Candidates(s, action)
	if len(candidates) == 0 {
		return Rule{}, false, false
	}
	for _, r := range candidates {
		if r.Role == role {
			return r, true, true
		}
	}
	return Rule{}, true, false
}

// SatisfiedBy reports whether an order sitting in s already reflects the
// outcome of action performed by role, so repeating it is a no-op. Only
// named actions qualify since their targets are unambiguous.
func SatisfiedBy(s Status, action Action, role Role) bool {
	if action.Generic() {
		return false
	}
	for _, r := range Rules {
		if r.Action == action && r.Role == role && r.To == s {
			return true
		}
	}
	return false
}

// NamedActions lists every non-generic action in table order, once each.
func NamedActions() []Action {
	seen := make(map[Action]bool)
	var out []Action
	for _, r := range Rules {
		if r.Action.Generic() || seen[r.Action] {
			continue
		}
		seen[r.Action] = true
		out = append(out, r.Action)
	}
	return out
}

func matches(r Rule, action Action) bool {
	switch action {
	case ActionAdvance:
		return r.Direction == Forward
	case ActionRevert:
		return r.Direction == Backward
	}
	return r.Action == action
}
