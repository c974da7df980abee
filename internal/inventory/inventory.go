// Package inventory provides the account/region pairs a run processes.
package inventory

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/internal/util"
)

// Document is the accounts file layout. A file holding a bare list is read as Accounts.
type Document struct {
	Accounts []upgrade.AccountRegion `yaml:"accounts" json:"accounts"`
	Skip     []upgrade.AccountRegion `yaml:"skip" json:"skip"`
}

// Static serves fixed lists
type Static struct {
	accounts []upgrade.AccountRegion
	skip     []upgrade.AccountRegion
}

// NewStatic creates a source serving accounts and skip
func NewStatic(accounts, skip []upgrade.AccountRegion) *Static {
	return &Static{accounts: accounts, skip: skip}
}

// ListAccounts implements upgrade.AccountSource
func (s *Static) ListAccounts(ctx context.Context) ([]upgrade.AccountRegion, error) {
	return s.accounts, nil
}

// ListSkippedAccounts implements upgrade.AccountSource
func (s *Static) ListSkippedAccounts(ctx context.Context) ([]upgrade.AccountRegion, error) {
	return s.skip, nil
}

// File reads a YAML or JSON accounts file on every call
type File struct {
	path  string
	extra []upgrade.AccountRegion
	skip  []upgrade.AccountRegion
}

// NewFile creates a source reading path. extraSkip is added to the file's skip list.
func NewFile(path string, extraSkip []upgrade.AccountRegion) *File {
	return &File{path: path, skip: extraSkip}
}

// WithAccounts appends accounts to those read from the file
func (f *File) WithAccounts(accounts []upgrade.AccountRegion) *File {
	f.extra = append(f.extra, accounts...)
	return f
}

// ListAccounts implements upgrade.AccountSource
func (f *File) ListAccounts(ctx context.Context) ([]upgrade.AccountRegion, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	return append(doc.Accounts, f.extra...), nil
}

// ListSkippedAccounts implements upgrade.AccountSource
func (f *File) ListSkippedAccounts(ctx context.Context) ([]upgrade.AccountRegion, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	return append(doc.Skip, f.skip...), nil
}

func (f *File) load() (*Document, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", util.ErrInventory, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", util.ErrInventory, f.path, err)
	}
	return doc, nil
}

// Parse decodes an accounts document. JSON is accepted as a subset of YAML.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &Document{}, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, err
	}

	doc := &Document{}
	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&doc.Accounts); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		if err := root.Decode(doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("expected a list of accounts or an accounts document")
	}

	if err := validate(doc.Accounts, "accounts"); err != nil {
		return nil, err
	}
	if err := validate(doc.Skip, "skip"); err != nil {
		return nil, err
	}
	return doc, nil
}

func validate(entries []upgrade.AccountRegion, field string) error {
	for i, ar := range entries {
		if ar.AccountID == "" || ar.Region == "" {
			return util.NewValidationError(fmt.Sprintf("%s[%d]", field, i), ar.String(), "account and region are required")
		}
	}
	return nil
}
