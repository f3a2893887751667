package governance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()

	assert.Equal(t, 6, rules.category("Security").Base)
	assert.Equal(t, 3, rules.category("Cost").Base)
	assert.Equal(t, 4, rules.category("highavailability").Base)
	assert.Equal(t, 3, rules.category("Unheard").Base)
	assert.Equal(t, 0.5, rules.category("OperationalExcellence").Effort["Low"])

	assert.Equal(t, []string{"ISO 27001", "NIA Qatar"}, rules.Frameworks())
	require.Len(t, rules.Compliance, 8)
	assert.Equal(t, domain.SeverityCritical, rules.Compliance[4].Severity)
}

func TestParseRules(t *testing.T) {
	t.Run("rejects duplicate ids", func(t *testing.T) {
		_, err := ParseRules([]byte(`
modifiers:
  - {id: a, keywords: [x], delta: 1}
  - {id: a, keywords: [y], delta: 1}
`))
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	})

	t.Run("rejects modifiers without conditions", func(t *testing.T) {
		_, err := ParseRules([]byte(`modifiers: [{id: empty, delta: 1}]`))
		assert.ErrorContains(t, err, "has no condition")
	})

	t.Run("rejects unknown severities", func(t *testing.T) {
		_, err := ParseRules([]byte(`compliance: [{id: c, framework: F, keywords: [x], severity: SEVERE}]`))
		assert.Error(t, err)
	})

	t.Run("rejects out of range base scores", func(t *testing.T) {
		_, err := ParseRules([]byte(`categories: {Security: {base: 12}}`))
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	})
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories:
  Security: {base: 8}
modifiers:
  - {id: pii, keywords: [customer data], delta: 2, controls: [A.8.2.1]}
`), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, 8, rules.category("Security").Base)
	assert.Empty(t, rules.Compliance)

	builtin, err := LoadRules("")
	require.NoError(t, err)
	assert.NotEmpty(t, builtin.Modifiers)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
