package mcp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"gopkg.in/yaml.v3"
)

// Policy gates which estate tools an AI agent may call. Everything is
// read-only already; the policy exists so users can narrow exposure
// further (e.g. allow summaries but not the asset list).
type Policy struct {
	Version       int      `yaml:"version"`
	DefaultAction string   `yaml:"default_action"`
	DeniedTools   []string `yaml:"denied_tools"`
	AllowedTools  []string `yaml:"allowed_tools"`
}

// PolicyFileName is the policy file inside the vault directory.
const PolicyFileName = "mcp-policy.yaml"

// Policy action constants.
const (
	ActionAllow = "allow"
	ActionDeny  = "deny"
)

// Policy load errors.
var (
	ErrPolicyNotFound       = errors.New("MCP policy file not found")
	ErrPolicyInsecure       = errors.New("MCP policy file has insecure permissions")
	ErrPolicySymlink        = errors.New("MCP policy file is a symlink")
	ErrPolicyNotOwnedByUser = errors.New("MCP policy file not owned by current user")
)

// LoadPolicy loads the policy from the vault directory. The file must
// be a regular file owned by the current user with 0600 permissions;
// it is opened with O_NOFOLLOW so a symlink swap cannot redirect the
// read.
func LoadPolicy(vaultDir string) (*Policy, error) {
	policyPath := filepath.Join(vaultDir, PolicyFileName)

	f, err := os.OpenFile(policyPath, os.O_RDONLY|syscall.O_NOFOLLOW, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPolicyNotFound
		}
		if os.IsPermission(err) || errors.Is(err, syscall.ELOOP) {
			return nil, ErrPolicySymlink
		}
		return nil, fmt.Errorf("failed to open policy file: %w", err)
	}
	defer f.Close()

	// fstat the opened descriptor so the checks and the read see the
	// same file.
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat policy file: %w", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		return nil, fmt.Errorf("%w: %o (expected 0600)", ErrPolicyInsecure, perm)
	}
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		if stat.Uid != uint32(os.Getuid()) {
			return nil, ErrPolicyNotOwnedByUser
		}
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var policy Policy
	if err := yaml.Unmarshal(content, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}
	if policy.Version != 1 {
		return nil, fmt.Errorf("unsupported policy version: %d", policy.Version)
	}
	if policy.DefaultAction == "" {
		policy.DefaultAction = ActionDeny
	}
	return &policy, nil
}

// IsToolAllowed checks whether a tool may be called. Evaluation order:
// denied_tools, then allowed_tools, then default_action. A nil policy
// denies everything.
func (p *Policy) IsToolAllowed(tool string) (allowed bool, reason string) {
	if p == nil {
		return false, "no policy file: all tools denied"
	}
	for _, denied := range p.DeniedTools {
		if denied == tool {
			return false, fmt.Sprintf("tool '%s' is in denied_tools", tool)
		}
	}
	for _, a := range p.AllowedTools {
		if a == tool {
			return true, ""
		}
	}
	if p.DefaultAction == ActionAllow {
		return true, ""
	}
	return false, fmt.Sprintf("tool '%s' not in allowed_tools list", tool)
}

// Validate checks the policy configuration.
func (p *Policy) Validate() error {
	if p.Version != 1 {
		return fmt.Errorf("unsupported policy version: %d", p.Version)
	}
	if p.DefaultAction != ActionDeny && p.DefaultAction != ActionAllow {
		return fmt.Errorf("invalid default_action: %s (must be '%s' or '%s')", p.DefaultAction, ActionDeny, ActionAllow)
	}
	return nil
}
