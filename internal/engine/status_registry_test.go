package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateStatus_RegistersProjectOnFirstEvaluation(t *testing.T) {
	s, _ := setupTwoProjects(t)

	assert.Equal(t, 0, s.Registry.Count())

	aKey := s.Cache.Key(s.Cache.Resolve("a"))
	s.EvaluateStatus(aKey)

	info, ok := s.Registry.Get(aKey)
	require.True(t, ok)
	assert.False(t, info.HasErrors)
}

func TestEvaluateStatus_RegistersUnbuildableProjectWithErrors(t *testing.T) {
	s, _ := setupTwoProjects(t)

	key := s.Cache.Key(s.Cache.Resolve("does-not-exist"))
	s.EvaluateStatus(key)

	info, ok := s.Registry.Get(key)
	require.True(t, ok)
	assert.True(t, info.HasErrors)
}
