package authkit

// Policy maps a protected operation to the permission claims required to
// perform it. An operation with no permission requirement must still be
// registered with AuthenticatedOnly; unmapped operations always deny. The
// distinction is explicit in configuration, never inferred.
type Policy struct {
	operation string
	required  []string
}

// RequirePermissions builds a policy demanding every listed permission.
func RequirePermissions(operation string, permissions ...string) Policy {
	return Policy{
		operation: operation,
		required:  permissions,
	}
}

// AuthenticatedOnly builds a policy that admits any validated claim set.
func AuthenticatedOnly(operation string) Policy {
	return Policy{operation: operation}
}

// Operation returns the operation identifier the policy guards.
func (p Policy) Operation() string {
	return p.operation
}

// Authorizer evaluates claim-based permission policies. Evaluation is
// synchronous and side-effect free: all claims must already be embedded in
// the validated access token, the store is never consulted.
type Authorizer struct {
	policies map[string]Policy
	logger   Logger
}

// NewAuthorizer builds an Authorizer from a static policy set.
func NewAuthorizer(policies ...Policy) *Authorizer {
	mapped := make(map[string]Policy, len(policies))
	for _, p := range policies {
		if p.operation != "" {
			mapped[p.operation] = p
		}
	}

	return &Authorizer{
		policies: mapped,
		logger:   defLogger{},
	}
}

func (a *Authorizer) WithLogger(logger Logger) *Authorizer {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Authorize decides allow/deny for the operation given a validated claim set.
// Deny is the default.
func (a *Authorizer) Authorize(claims AuthClaims, operation string) error {
	if claims == nil {
		return ErrInvalidCredentials
	}

	policy, ok := a.policies[operation]
	if !ok {
		a.logger.Warn("authorize called for unmapped operation: %s", operation)
		return ErrPolicyNotDefined.WithMetadata(map[string]any{
			"operation": operation,
		})
	}

	for _, required := range policy.required {
		if !claims.HasPermission(required) {
			return ErrPermissionDenied.WithMetadata(map[string]any{
				"operation": operation,
				"required":  required,
			})
		}
	}

	return nil
}
