// Package rolespec parses and validates role definitions and user batches
// from YAML, the wire format operators hand to roleguard's CLI and API,
// and converts a validated definition into a role.Role ready for
// evaluation.
package rolespec

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/jihwankim/roleguard/pkg/allowlist"
	"github.com/jihwankim/roleguard/pkg/identity"
	"github.com/jihwankim/roleguard/pkg/relation"
	"github.com/jihwankim/roleguard/pkg/requirement"
	"github.com/jihwankim/roleguard/pkg/role"
)

// RoleDoc is a role definition's on-disk YAML shape.
type RoleDoc struct {
	APIVersion string  `yaml:"apiVersion"`
	Kind       string  `yaml:"kind"`
	Metadata   MetaDoc `yaml:"metadata"`
	Spec       SpecDoc `yaml:"spec"`
}

// MetaDoc carries the role's name.
type MetaDoc struct {
	Name string `yaml:"name"`
}

// SpecDoc is a role's logic expression, requirement list, and optional
// post-filter.
type SpecDoc struct {
	Logic        string           `yaml:"logic"`
	Requirements []RequirementDoc `yaml:"requirements"`
	Filter       []string         `yaml:"filter,omitempty"`
	DenyFilter   bool             `yaml:"denyFilter,omitempty"`
}

// RequirementDoc is one requirement entry: which plugin it routes to, the
// identity it is checked against, the relation folding its scalar result
// into a boolean, and whatever metadata that plugin needs.
type RequirementDoc struct {
	Prefix      uint64                 `yaml:"prefix"`
	IdentityTag string                 `yaml:"identityTag"`
	Relation    RelationDoc            `yaml:"relation"`
	Metadata    map[string]interface{} `yaml:"metadata,omitempty"`
}

// RelationDoc is a relation.Relation[float64] in its YAML form: Kind is
// one of eq, gt, gte, lt, lte, between, between_inclusive.
type RelationDoc struct {
	Kind string  `yaml:"kind"`
	Lo   float64 `yaml:"lo,omitempty"`
	Hi   float64 `yaml:"hi,omitempty"`
}

// UserBatchDoc is a batch of users under evaluation, as loaded from YAML.
type UserBatchDoc struct {
	Users []identity.User `yaml:"users"`
}

// Parser parses role and user-batch YAML documents, substituting
// ${VAR}/$VAR references from its Variables map and the process
// environment before parsing.
type Parser struct {
	Variables map[string]string
}

// New creates a new parser with optional variables.
func New(variables map[string]string) *Parser {
	if variables == nil {
		variables = make(map[string]string)
	}
	return &Parser{Variables: variables}
}

// ParseRoleFile parses a role definition from a YAML file.
func (p *Parser) ParseRoleFile(path string) (*RoleDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role file: %w", err)
	}
	return p.ParseRole(data)
}

// ParseRole parses a role definition from YAML bytes.
func (p *Parser) ParseRole(data []byte) (*RoleDoc, error) {
	substituted := p.substituteVariables(string(data))

	var doc RoleDoc
	if err := yaml.Unmarshal([]byte(substituted), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateRoleDoc(&doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

// ParseUserBatchFile parses a user batch from a YAML file.
func (p *Parser) ParseUserBatchFile(path string) ([]identity.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user batch file: %w", err)
	}
	return p.ParseUserBatch(data)
}

// ParseUserBatch parses a user batch from YAML bytes.
func (p *Parser) ParseUserBatch(data []byte) ([]identity.User, error) {
	substituted := p.substituteVariables(string(data))

	var doc UserBatchDoc
	if err := yaml.Unmarshal([]byte(substituted), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return doc.Users, nil
}

// substituteVariables replaces ${VAR} and $VAR with values from the
// environment and parser variables
func (p *Parser) substituteVariables(content string) string {
	re := regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

	return re.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if val, ok := p.Variables[varName]; ok {
			return val
		}
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// SetVariable sets a variable for substitution
func (p *Parser) SetVariable(key, value string) {
	p.Variables[key] = value
}

// SetVariables sets multiple variables
func (p *Parser) SetVariables(vars map[string]string) {
	for k, v := range vars {
		p.Variables[k] = v
	}
}

// ParseOverrides parses CLI override strings (--set key=value)
func ParseOverrides(overrides []string) (map[string]string, error) {
	result := make(map[string]string)

	for _, override := range overrides {
		parts := strings.SplitN(override, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid override format: %s (expected key=value)", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if key == "" {
			return nil, fmt.Errorf("empty key in override: %s", override)
		}

		result[key] = value
	}

	return result, nil
}

// ApplyOverrides applies CLI overrides to a role definition
func ApplyOverrides(doc *RoleDoc, overrides map[string]string) error {
	for key, value := range overrides {
		switch key {
		case "logic", "spec.logic":
			doc.Spec.Logic = value

		case "filter", "spec.filter":
			if value == "" {
				doc.Spec.Filter = nil
			} else {
				doc.Spec.Filter = strings.Split(value, ",")
			}

		default:
			return fmt.Errorf("unsupported override key: %s", key)
		}
	}

	return nil
}

// validateRoleDoc validates that required fields are present
func validateRoleDoc(doc *RoleDoc) error {
	if doc.APIVersion == "" {
		return fmt.Errorf("apiVersion is required")
	}
	if doc.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if doc.Metadata.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}
	if doc.Spec.Logic == "" {
		return fmt.Errorf("spec.logic is required")
	}
	if len(doc.Spec.Requirements) == 0 {
		return fmt.Errorf("spec.requirements is required and must have at least one entry")
	}

	for i, req := range doc.Spec.Requirements {
		if req.IdentityTag == "" {
			return fmt.Errorf("spec.requirements[%d].identityTag is required", i)
		}
		if req.Relation.Kind == "" {
			return fmt.Errorf("spec.requirements[%d].relation.kind is required", i)
		}
		if _, err := parseRelationKind(req.Relation.Kind); err != nil {
			return fmt.Errorf("spec.requirements[%d]: %w", i, err)
		}
	}

	return nil
}

// ToRole converts a validated RoleDoc into a role.Role ready for
// evaluation, CBOR-encoding each requirement's Metadata map into the byte
// payload its plugin expects.
func ToRole(doc *RoleDoc) (*role.Role, error) {
	reqs := make([]requirement.Requirement, len(doc.Spec.Requirements))
	for i, rd := range doc.Spec.Requirements {
		kind, err := parseRelationKind(rd.Relation.Kind)
		if err != nil {
			return nil, fmt.Errorf("requirement %d: %w", i, err)
		}

		var metadata []byte
		if len(rd.Metadata) > 0 {
			m, err := cbor.Marshal(rd.Metadata)
			if err != nil {
				return nil, fmt.Errorf("requirement %d: encode metadata: %w", i, err)
			}
			metadata = m
		}

		reqs[i] = requirement.Requirement{
			Prefix:      rd.Prefix,
			Metadata:    metadata,
			Relation:    relation.Relation[float64]{Kind: kind, Lo: rd.Relation.Lo, Hi: rd.Relation.Hi},
			IdentityTag: rd.IdentityTag,
		}
	}

	var filter *allowlist.AllowList[string]
	if len(doc.Spec.Filter) > 0 {
		filter = &allowlist.AllowList[string]{DenyList: doc.Spec.DenyFilter, List: doc.Spec.Filter}
	}

	return &role.Role{
		ID:           doc.Metadata.Name,
		Logic:        doc.Spec.Logic,
		Filter:       filter,
		Requirements: reqs,
	}, nil
}

func parseRelationKind(s string) (relation.Kind, error) {
	switch strings.ToLower(s) {
	case "eq":
		return relation.EqualTo, nil
	case "gt":
		return relation.GreaterThan, nil
	case "gte":
		return relation.GreaterOrEqualTo, nil
	case "lt":
		return relation.LessThan, nil
	case "lte":
		return relation.LessOrEqualTo, nil
	case "between":
		return relation.Between, nil
	case "between_inclusive":
		return relation.BetweenInclusive, nil
	default:
		return 0, fmt.Errorf("unknown relation kind %q", s)
	}
}
