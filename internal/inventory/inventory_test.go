package inventory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/internal/util"
)

var (
	a111 = upgrade.AccountRegion{AccountID: "111", Region: "us-east-1"}
	a222 = upgrade.AccountRegion{AccountID: "222", Region: "us-east-1"}
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		accounts []upgrade.AccountRegion
		skip     []upgrade.AccountRegion
		wantErr  bool
	}{
		{
			name:     "json list",
			input:    `[{"account": "111", "region": "us-east-1"}, {"account": "222", "region": "us-east-1"}]`,
			accounts: []upgrade.AccountRegion{a111, a222},
		},
		{
			name: "yaml document",
			input: `
accounts:
  - account: "111"
    region: us-east-1
  - account: "222"
    region: us-east-1
skip:
  - account: "111"
    region: us-east-1
`,
			accounts: []upgrade.AccountRegion{a111, a222},
			skip:     []upgrade.AccountRegion{a111},
		},
		{
			name:  "empty",
			input: "  \n",
		},
		{
			name:    "missing region",
			input:   `[{"account": "111"}]`,
			wantErr: true,
		},
		{
			name:    "scalar",
			input:   `hello`,
			wantErr: true,
		},
		{
			name:    "malformed",
			input:   `[{"account": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.accounts, doc.Accounts)
			assert.Equal(t, tt.skip, doc.Skip)
		})
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"accounts": [{"account": "111", "region": "us-east-1"}], "skip": []}`), 0o600))

	source := NewFile(path, []upgrade.AccountRegion{a111}).WithAccounts([]upgrade.AccountRegion{a222})

	accounts, err := source.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []upgrade.AccountRegion{a111, a222}, accounts)

	skip, err := source.ListSkippedAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []upgrade.AccountRegion{a111}, skip)
}

func TestFile_Missing(t *testing.T) {
	source := NewFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)

	_, err := source.ListAccounts(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrInventory)
}

func TestFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- account: \"111\"\n"), 0o600))

	_, err := NewFile(path, nil).ListAccounts(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrInventory)
	assert.ErrorIs(t, err, util.ErrInvalidConfig)
}

func TestStatic(t *testing.T) {
	source := NewStatic([]upgrade.AccountRegion{a111, a222}, []upgrade.AccountRegion{a111})

	accounts, err := source.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	skip, err := source.ListSkippedAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []upgrade.AccountRegion{a111}, skip)
}
