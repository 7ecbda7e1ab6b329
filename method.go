package sqlforge

// ParamRole classifies how a method parameter participates in SQL
// generation.
type ParamRole int

const (
	RoleScalar ParamRole = iota
	RoleEntityBody
	RoleEntityCollection
	RolePredicateExpression
	RoleCancellationToken
	RoleTransaction
)

func (r ParamRole) String() string {
	switch r {
	case RoleScalar:
		return "Scalar"
	case RoleEntityBody:
		return "EntityBody"
	case RoleEntityCollection:
		return "EntityCollection"
	case RolePredicateExpression:
		return "PredicateExpression"
	case RoleCancellationToken:
		return "CancellationToken"
	case RoleTransaction:
		return "Transaction"
	default:
		return "Unknown"
	}
}

// ReturnKind is the shape of a method's return value.
type ReturnKind int

const (
	ReturnUnit ReturnKind = iota
	ReturnScalar
	ReturnEntity
	ReturnOptionalEntity
	ReturnCollection
	ReturnAffectedRowsCount
	ReturnGeneratedID
)

func (k ReturnKind) String() string {
	switch k {
	case ReturnUnit:
		return "Unit"
	case ReturnScalar:
		return "Scalar"
	case ReturnEntity:
		return "Entity"
	case ReturnOptionalEntity:
		return "OptionalEntity"
	case ReturnCollection:
		return "Collection"
	case ReturnAffectedRowsCount:
		return "AffectedRowsCount"
	case ReturnGeneratedID:
		return "GeneratedId"
	default:
		return "Unknown"
	}
}

// ReturnShape pairs a ReturnKind with the entity/scalar type it carries,
// where applicable. TypeTag is empty for Unit/AffectedRowsCount.
type ReturnShape struct {
	Kind    ReturnKind
	TypeTag string
}

// MethodParam is one parameter of a MethodDescriptor.
type MethodParam struct {
	Name       string
	TypeTag    string
	IsNullable bool
	Role       ParamRole
}

// MethodFlags carries per-method planning hints that do not fit the
// core data model proper.
type MethodFlags struct {
	EnableCaching   bool
	BatchMaxSize    int
	DialectOverride *DialectName
}

// MethodDescriptor is the front-end-supplied description of one repository
// method: its parameters, return shape, and the raw SQL template that
// produces its ExecutionPlan.
type MethodDescriptor struct {
	Name        string
	Parameters  []MethodParam
	ReturnShape ReturnShape
	SQLTemplate string
	Flags       MethodFlags
}

// ParamsByRole returns every parameter with the given role, in declaration
// order.
func (m MethodDescriptor) ParamsByRole(role ParamRole) []MethodParam {
	var out []MethodParam
	for _, p := range m.Parameters {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// ParamByName finds a parameter by name, case-sensitively (identifier
// values preserve case per §4.7's case-sensitivity policy; only placeholder
// and option names are matched case-insensitively).
func (m MethodDescriptor) ParamByName(name string) (MethodParam, bool) {
	for _, p := range m.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return MethodParam{}, false
}

// effectiveBatchMaxSize resolves the chunk size a RuntimeRenderer should use
// for this method's batch operations: the method's own override if set,
// else the caller-supplied fallback (an engine's configured default).
func (m MethodDescriptor) effectiveBatchMaxSize(fallback int) int {
	if m.Flags.BatchMaxSize > 0 {
		return m.Flags.BatchMaxSize
	}
	return fallback
}
