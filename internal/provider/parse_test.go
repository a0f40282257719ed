package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	t.Run("plain JSON object", func(t *testing.T) {
		reply, err := parseReply(`{"sentiment": 72, "confidence": 85, "reasoning": "momentum is building"}`)
		require.NoError(t, err)
		assert.Equal(t, 72.0, reply.Sentiment)
		assert.Equal(t, 85.0, reply.Confidence)
		assert.Equal(t, "momentum is building", reply.Reasoning)
	})

	t.Run("fenced markdown block", func(t *testing.T) {
		raw := "Here is my analysis:\n```json\n{\"sentiment\": 30, \"confidence\": 60, \"reasoning\": \"macro headwinds\"}\n```\nHope that helps."
		reply, err := parseReply(raw)
		require.NoError(t, err)
		assert.Equal(t, 30.0, reply.Sentiment)
	})

	t.Run("prose around a bare object", func(t *testing.T) {
		raw := `Based on the data I conclude {"sentiment": 55, "confidence": 70, "reasoning": "mixed signals"} as stated.`
		reply, err := parseReply(raw)
		require.NoError(t, err)
		assert.Equal(t, 55.0, reply.Sentiment)
	})

	t.Run("no JSON at all", func(t *testing.T) {
		_, err := parseReply("I cannot provide a structured answer right now.")
		assert.ErrorIs(t, err, ErrMalformedReply)
	})

	t.Run("sentiment as string is rejected", func(t *testing.T) {
		_, err := parseReply(`{"sentiment": "72", "confidence": 85, "reasoning": "x"}`)
		assert.ErrorIs(t, err, ErrMalformedReply)
	})

	t.Run("missing confidence is rejected", func(t *testing.T) {
		_, err := parseReply(`{"sentiment": 72, "reasoning": "x"}`)
		assert.ErrorIs(t, err, ErrMalformedReply)
	})

	t.Run("out of range values are rejected", func(t *testing.T) {
		_, err := parseReply(`{"sentiment": 120, "confidence": 85, "reasoning": "x"}`)
		assert.ErrorIs(t, err, ErrValueOutOfRange)
		_, err = parseReply(`{"sentiment": 70, "confidence": -5, "reasoning": "x"}`)
		assert.ErrorIs(t, err, ErrValueOutOfRange)
	})

	t.Run("empty reasoning is rejected", func(t *testing.T) {
		_, err := parseReply(`{"sentiment": 72, "confidence": 85, "reasoning": "   "}`)
		assert.ErrorIs(t, err, ErrMalformedReply)
	})

	t.Run("boundary values pass", func(t *testing.T) {
		reply, err := parseReply(`{"sentiment": 0, "confidence": 100, "reasoning": "extremes"}`)
		require.NoError(t, err)
		assert.Zero(t, reply.Sentiment)
		assert.Equal(t, 100.0, reply.Confidence)
	})
}
