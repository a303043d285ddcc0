package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanoonbuddy/backend/internal/domain"
	"github.com/qanoonbuddy/backend/internal/service/chat"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ARK_API_KEY", "")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSearchPrintsMatches(t *testing.T) {
	out, err := run(t, "", "search", "khula")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 case(s)")
	assert.Contains(t, out, "PLD 2020 Lahore 234")
}

func TestSearchNoMatch(t *testing.T) {
	out, err := run(t, "", "search", "zoning")
	require.NoError(t, err)
	assert.Contains(t, out, "No cases found")
}

func TestSearchRequiresKeyword(t *testing.T) {
	_, err := run(t, "", "search")
	assert.Error(t, err)
}

func TestCasesListsCatalog(t *testing.T) {
	out, err := run(t, "", "cases")
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, "\n"))
	assert.True(t, strings.HasPrefix(out, "[0] Ali vs State"))
}

func TestExplainWithoutCredential(t *testing.T) {
	_, err := run(t, "", "explain", "0")
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestExplainRejectsBadIndex(t *testing.T) {
	_, err := run(t, "", "explain", "first")
	assert.Error(t, err)

	_, err = run(t, "", "explain", "9")
	assert.ErrorIs(t, err, domain.ErrCaseNotFound)
}

func TestTranslateRejectsUnknownDirection(t *testing.T) {
	_, err := run(t, "", "translate", "--direction", "en-fr", "hello")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAskWithoutCredentialWarns(t *testing.T) {
	out, err := run(t, "", "ask", "What is khula?")
	require.NoError(t, err)
	assert.Contains(t, out, chat.UnavailableWarning)
}

func TestAskInteractiveReadsUntilEOF(t *testing.T) {
	out, err := run(t, "first question\n\nsecond question\n", "ask")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, chat.UnavailableWarning))
}

func TestSummarizeMissingFile(t *testing.T) {
	_, err := run(t, "", "summarize", "does-not-exist.pdf")
	assert.Error(t, err)
}
