package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RigorScore/internal/domain"
)

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	raw := "Here you go:\n```json\n{\"holds\": true, \"confidence\": 1.7, \"rationale\": \" ok \", \"severity\": \"Severe\", \"subject\": \"launch date\"}\n```"
	v, err := ParseVerdict(raw)
	require.NoError(t, err)
	assert.True(t, v.Holds)
	assert.Equal(t, 1.0, v.Confidence)
	assert.Equal(t, "ok", v.Rationale)
	assert.Equal(t, "severe", v.Severity)
	assert.Equal(t, "launch date", v.Subject)
}

func TestParseVerdictAlternativeKeys(t *testing.T) {
	t.Parallel()

	v, err := ParseVerdict(`{"passed": false, "confidence": 0.4}`)
	require.NoError(t, err)
	assert.False(t, v.Holds)
	assert.Equal(t, 0.4, v.Confidence)

	v, err = ParseVerdict(`{"conflict": true}`)
	require.NoError(t, err)
	assert.True(t, v.Holds)
}

func TestParseVerdictRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseVerdict("I cannot answer that")
	assert.Error(t, err)

	_, err = ParseVerdict(`{"confidence": 0.9}`)
	assert.Error(t, err)
}

func TestRenderRequestInlinesDocuments(t *testing.T) {
	t.Parallel()

	out := RenderRequest(domain.OracleRequest{
		Prompt: "Compare these.",
		Documents: []domain.OracleDocument{
			{SourceID: "a", Type: "final-pdf", Authoritative: true, Title: "Plan", Text: "ship in May"},
			{SourceID: "b", Type: "transcript", Text: "ship in June"},
		},
	})
	assert.True(t, strings.HasPrefix(out, "Compare these."))
	assert.Contains(t, out, "--- Document 1 (id=a, type=final-pdf, authoritative) Plan ---\nship in May")
	assert.Contains(t, out, "--- Document 2 (id=b, type=transcript) ---\nship in June")
	assert.True(t, strings.HasSuffix(out, ResponseContract))
}

func TestGuardClassifiesTimeout(t *testing.T) {
	t.Parallel()

	slow := Func(func(ctx context.Context, _ domain.OracleRequest) (domain.Verdict, error) {
		<-ctx.Done()
		return domain.Verdict{}, ctx.Err()
	})
	g := NewGuard(slow, 10*time.Millisecond, nil)
	_, err := g.Evaluate(context.Background(), domain.OracleRequest{Task: domain.TaskCriterion})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOracleTimeout))
}

func TestGuardClassifiesFailureAndNormalizes(t *testing.T) {
	t.Parallel()

	failing := Func(func(context.Context, domain.OracleRequest) (domain.Verdict, error) {
		return domain.Verdict{}, errors.New("boom")
	})
	_, err := NewGuard(failing, time.Second, nil).Evaluate(context.Background(), domain.OracleRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOracleUnavailable))

	eager := Func(func(context.Context, domain.OracleRequest) (domain.Verdict, error) {
		return domain.Verdict{Holds: true, Confidence: -2}, nil
	})
	v, err := NewGuard(eager, time.Second, nil).Evaluate(context.Background(), domain.OracleRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, v.Confidence)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "héll [truncated]", Truncate("héllo", 4))
}
