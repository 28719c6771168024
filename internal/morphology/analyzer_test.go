package morphology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseForms(t *testing.T) {
	analyzer, err := NewAnalyzer()
	require.NoError(t, err)

	// 行った は 行く の活用形
	forms := analyzer.BaseForms("学校に行った")
	assert.Contains(t, forms, "行く")
	assert.Contains(t, forms, "学校")
}

func TestBaseFormsEmpty(t *testing.T) {
	analyzer, err := NewAnalyzer()
	require.NoError(t, err)

	assert.Empty(t, analyzer.BaseForms(""))
}
