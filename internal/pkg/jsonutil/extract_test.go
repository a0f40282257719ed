package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	t.Run("bare object", func(t *testing.T) {
		obj, ok := ExtractJSONObject(`{"a": 1}`)
		require.True(t, ok)
		assert.Equal(t, `{"a": 1}`, obj)
	})

	t.Run("fenced with language tag", func(t *testing.T) {
		obj, ok := ExtractJSONObject("```json\n{\"a\": 1}\n```")
		require.True(t, ok)
		assert.Equal(t, `{"a": 1}`, obj)
	})

	t.Run("fenced without language tag", func(t *testing.T) {
		obj, ok := ExtractJSONObject("```\n{\"a\": 1}\n```")
		require.True(t, ok)
		assert.Equal(t, `{"a": 1}`, obj)
	})

	t.Run("object surrounded by prose", func(t *testing.T) {
		obj, ok := ExtractJSONObject(`My answer is {"a": {"b": 2}} thanks for asking.`)
		require.True(t, ok)
		assert.Equal(t, `{"a": {"b": 2}}`, obj)
	})

	t.Run("braces inside strings do not confuse the scan", func(t *testing.T) {
		obj, ok := ExtractJSONObject(`{"note": "unbalanced } inside", "n": 1}`)
		require.True(t, ok)
		assert.Equal(t, `{"note": "unbalanced } inside", "n": 1}`, obj)
	})

	t.Run("escaped quotes inside strings", func(t *testing.T) {
		obj, ok := ExtractJSONObject(`{"note": "she said \"go\"", "n": 1}`)
		require.True(t, ok)
		assert.Contains(t, obj, `\"go\"`)
	})

	t.Run("no object present", func(t *testing.T) {
		_, ok := ExtractJSONObject("just prose, nothing structured")
		assert.False(t, ok)
	})

	t.Run("unterminated object", func(t *testing.T) {
		_, ok := ExtractJSONObject(`{"a": 1`)
		assert.False(t, ok)
	})

	t.Run("empty input", func(t *testing.T) {
		_, ok := ExtractJSONObject("   ")
		assert.False(t, ok)
	})
}
