package domain

// AccessRules maps every status to the single role allowed to act on an
// order while it is in that status. The map is total over Statuses.
var AccessRules = map[Status]Role{
	StatusNeedsRework:      RoleCustomer,
	StatusCuratorReview:    RoleCurator,
	StatusExecutorReview:   RoleExecutor,
	StatusAccepted:         RoleCustomer,
	StatusContractCustomer: RoleCustomer,
	StatusContractCurator:  RoleCurator,
	StatusContractExecutor: RoleExecutor,
	StatusGDSCustomer:      RoleCustomer,
	StatusGDSCurator:       RoleCurator,
	StatusGDSExecutor:      RoleExecutor,
	StatusPaymentPending:   RoleCustomer,
	StatusPaymentCurator:   RoleCurator,
	StatusPaymentExecutor:  RoleExecutor,
	StatusProduction:       RoleExecutor,
	StatusTemplates:        RoleExecutor,
	StatusPlates:           RoleExecutor,
	StatusParamMonitor:     RoleExecutor,
	StatusCutting:          RoleExecutor,
	StatusPacking:          RoleExecutor,
	StatusShipped:          RoleExecutor,
	StatusPlatesSent:       RoleCurator,
	StatusReceipt:          RoleCustomer,
	// Completed orders admit no rules; the owner is kept so the map stays total.
	StatusCompleted: RoleCustomer,
}

// RequiredRole returns the role owning status s.
func RequiredRole(s Status) (Role, bool) {
	r, ok := AccessRules[s]
	return r, ok
}

// CanView reports whether actor may see order. creator is the profile
// that placed the order. Anyone from the creator's company may look,
// whatever their role.
func CanView(actor Actor, order Order, creator Profile) bool {
	if actor.ID == order.CreatorID {
		return true
	}
	if actor.CompanyName != "" && actor.CompanyName == creator.CompanyName {
		return true
	}

	switch actor.Role {
	case RoleCurator:
		return true
	case RoleExecutor:
		return servesPlatform(actor, order)
	}
	return false
}

// CanEdit reports whether actor may mutate order at all. Unlike CanView
// there is no same-company exception for customers.
func CanEdit(actor Actor, order Order) bool {
	if actor.ID == order.CreatorID {
		return true
	}

	switch actor.Role {
	case RoleCustomer:
		return false
	case RoleCurator:
		return true
	case RoleExecutor:
		return servesPlatform(actor, order)
	}
	return false
}

// CanActOnStatus reports whether actor's role owns the order's current status.
func CanActOnStatus(actor Actor, order Order) bool {
	want, ok := AccessRules[order.Status]
	return ok && actor.Role == want
}

// servesPlatform fails closed when the executor's company resolves to no platform.
func servesPlatform(actor Actor, order Order) bool {
	return actor.Platform != "" && actor.Platform == order.PlatformCode
}
