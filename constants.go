package sqlforge

import "time"

// DefaultBatchSize bounds how many rows a single batch_values expansion
// renders before the runtime chunks into multiple statements.
const DefaultBatchSize = 100

// Validator memoization cache defaults (§5: thread-safe, size- and
// time-bounded cache keyed by template text + dialect).
const (
	DefaultValidatorCacheSize = 512
	DefaultValidatorCacheTTL  = 30 * time.Minute
)

// limitModes maps the named pagination tiers accepted by {{limit:MODE}} and
// {{top:MODE}} to their row count. Named tiers keep generated SQL readable
// and give call sites a shared vocabulary instead of magic numbers.
var limitModes = map[string]int{
	"tiny":   5,
	"small":  10,
	"page":   20,
	"medium": 50,
	"large":  100,
}

// DefaultCapacityHint is used when a method's ExecutionPlan has no explicit
// or parameterized limit to derive a capacity hint from.
const DefaultCapacityHint = 16

// MaxPageSize bounds the row count accepted for a numeric (non-tiered)
// {{limit:N}} to guard against accidental unbounded scans baked into SQL.
const MaxPageSize = 10000
