// Package role implements the top-level role check: fan out a user batch
// across a role's requirements concurrently, reduce each requirement's
// per-identity results back to per-user booleans, transpose the
// requirement/user matrix, evaluate the role's boolean-logic expression
// per user, and apply the optional allow/deny filter.
package role

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/Knetic/govaluate"
	"golang.org/x/sync/errgroup"

	"github.com/jihwankim/roleguard/pkg/allowlist"
	"github.com/jihwankim/roleguard/pkg/identity"
	"github.com/jihwankim/roleguard/pkg/requirement"
)

// Role is a named boolean combination of requirements plus an optional
// evm_address filter. Logic references requirements by 0-based position.
type Role struct {
	ID           string                       `json:"id" yaml:"id"`
	Logic        string                       `json:"logic" yaml:"logic"`
	Filter       *allowlist.AllowList[string] `json:"filter,omitempty" yaml:"filter,omitempty"`
	Requirements []requirement.Requirement    `json:"requirements" yaml:"requirements"`
}

// Kind classifies why a role check failed outright (as opposed to a
// per-user false verdict, which is not an error).
type Kind int

const (
	// ConfigError means a requirement's plugin path or secret could not
	// be resolved.
	ConfigError Kind = iota
	// PluginLoadError means a requirement's plugin failed to load.
	PluginLoadError
	// PluginCallError means a plugin returned an error or a
	// length-mismatched result.
	PluginCallError
	// ParseError means role.Logic failed to parse.
	ParseError
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "config_error"
	case PluginLoadError:
		return "plugin_load_error"
	case PluginCallError:
		return "plugin_call_error"
	case ParseError:
		return "parse_error"
	default:
		return "unknown"
	}
}

// Error reports why CheckBatch failed as a whole.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("role: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Checker is the subset of *requirement.Runtime a role Evaluator needs.
type Checker interface {
	Check(req requirement.Requirement, client *http.Client, identities []string) ([]bool, error)
}

// Evaluator runs role checks against a requirement Checker.
type Evaluator struct {
	runtime Checker
}

// NewEvaluator builds an Evaluator dispatching requirement checks through runtime.
func NewEvaluator(runtime Checker) *Evaluator {
	return &Evaluator{runtime: runtime}
}

var logicTokenPattern = regexp.MustCompile(`\bAND\b|\bOR\b|\bNOT\b|\d+`)

// translateLogic rewrites the role's AND/OR/NOT/integer-index grammar into
// govaluate's own operator and parameter syntax. Integer terminal indices
// become parameter names "r<index>" since govaluate parameters cannot be
// bare digits.
func translateLogic(logic string) string {
	return logicTokenPattern.ReplaceAllStringFunc(logic, func(tok string) string {
		switch tok {
		case "AND":
			return "&&"
		case "OR":
			return "||"
		case "NOT":
			return "!"
		default:
			return "r" + tok
		}
	})
}

func terminalName(index int) string {
	return fmt.Sprintf("r%d", index)
}

// CheckBatch evaluates role against users, returning one boolean per user
// in users' order.
func (e *Evaluator) CheckBatch(role Role, client *http.Client, users []identity.User) ([]bool, error) {
	verdict, _, err := e.CheckBatchDetailed(role, client, users)
	return verdict, err
}

// CheckBatchDetailed is CheckBatch plus the per-user, per-requirement
// results that fed each final verdict, for callers (reporting, the CLI)
// that need to show which requirements a user passed rather than just
// whether they got in.
func (e *Evaluator) CheckBatchDetailed(role Role, client *http.Client, users []identity.User) (verdict []bool, perRequirement [][]bool, err error) {
	expr, err := govaluate.NewEvaluableExpression(translateLogic(role.Logic))
	if err != nil {
		return nil, nil, &Error{Kind: ParseError, Err: err}
	}

	if len(users) == 0 {
		return []bool{}, nil, nil
	}

	numUsers := len(users)
	numReqs := len(role.Requirements)
	accessByReq := make([][]bool, numReqs)

	g := new(errgroup.Group)
	for i, req := range role.Requirements {
		i, req := i, req
		g.Go(func() error {
			userIDs, payloads := fanOutIdentities(users, req.IdentityTag)

			flat, err := e.runtime.Check(req, client, payloads)
			if err != nil {
				return &Error{Kind: PluginCallError, Err: err}
			}
			if len(flat) != len(payloads) {
				return &Error{Kind: PluginCallError, Err: fmt.Errorf(
					"requirement %d: plugin returned %d results for %d identities", i, len(flat), len(payloads))}
			}

			accessByReq[i] = reduceByUser(users, userIDs, flat)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	transposed := transpose(accessByReq, numUsers)

	verdict = make([]bool, numUsers)
	for u := range users {
		params := make(map[string]interface{}, numReqs)
		for r := 0; r < numReqs; r++ {
			params[terminalName(r)] = transposed[u][r]
		}
		verdict[u] = evaluateForUser(expr, params)
	}

	if role.Filter != nil {
		for u, user := range users {
			verdict[u] = verdict[u] && passesFilter(*role.Filter, user)
		}
	}

	return verdict, transposed, nil
}

// fanOutIdentities flattens users into parallel (user_id, payload) slices
// drawn from each user's identities under tag, preserving user order and
// each user's payload order. Users with no identity under tag contribute
// nothing.
func fanOutIdentities(users []identity.User, tag string) (userIDs []uint64, payloads []string) {
	for _, u := range users {
		for _, payload := range u.Payloads(tag) {
			userIDs = append(userIDs, u.ID)
			payloads = append(payloads, payload)
		}
	}
	return userIDs, payloads
}

// reduceByUser ORs together every flat[i] whose userIDs[i] matches each
// user, in users' input order. Users absent from userIDs get false.
func reduceByUser(users []identity.User, userIDs []uint64, flat []bool) []bool {
	byUser := make(map[uint64]bool, len(users))
	for i, uid := range userIDs {
		if flat[i] {
			byUser[uid] = true
		}
	}

	out := make([]bool, len(users))
	for i, u := range users {
		out[i] = byUser[u.ID]
	}
	return out
}

// transpose turns the R-requirements-by-U-users matrix accessByReq into a
// U-by-R matrix.
func transpose(accessByReq [][]bool, numUsers int) [][]bool {
	numReqs := len(accessByReq)
	out := make([][]bool, numUsers)
	for u := 0; u < numUsers; u++ {
		row := make([]bool, numReqs)
		for r := 0; r < numReqs; r++ {
			row[r] = accessByReq[r][u]
		}
		out[u] = row
	}
	return out
}

// evaluateForUser evaluates expr against params, defaulting to false on
// any evaluation failure (undefined terminal, type mismatch) rather than
// failing the whole role check.
func evaluateForUser(expr *govaluate.EvaluableExpression, params map[string]interface{}) bool {
	result, err := expr.Evaluate(params)
	if err != nil {
		return false
	}
	verdict, ok := result.(bool)
	if !ok {
		return false
	}
	return verdict
}

func passesFilter(filter allowlist.AllowList[string], user identity.User) bool {
	for _, addr := range user.Payloads(identity.TagEvmAddress) {
		if filter.Check(addr) {
			return true
		}
	}
	return false
}
