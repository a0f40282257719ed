package provider

import (
	"fmt"
	"math"
	"strings"

	"quorum/internal/pkg/jsonutil"

	"github.com/tidwall/gjson"
)

type parsedReply struct {
	Sentiment  float64
	Confidence float64 // provider-native 0-100 scale
	Reasoning  string
}

// parseReply performs the strict parse-then-validate step on a raw model
// reply. Shape problems yield ErrMalformedReply, range problems
// ErrValueOutOfRange; the caller maps both to validation failures distinct
// from transport errors.
func parseReply(raw string) (parsedReply, error) {
	obj, ok := jsonutil.ExtractJSONObject(raw)
	if !ok {
		return parsedReply{}, fmt.Errorf("%w: no JSON object found", ErrMalformedReply)
	}
	if !gjson.Valid(obj) {
		return parsedReply{}, fmt.Errorf("%w: invalid JSON", ErrMalformedReply)
	}
	parsed := gjson.Parse(obj)

	sentiment, err := numericField(parsed, "sentiment")
	if err != nil {
		return parsedReply{}, err
	}
	confidence, err := numericField(parsed, "confidence")
	if err != nil {
		return parsedReply{}, err
	}
	reasoning := strings.TrimSpace(parsed.Get("reasoning").String())
	if parsed.Get("reasoning").Type != gjson.String || reasoning == "" {
		return parsedReply{}, fmt.Errorf("%w: reasoning must be a non-empty string", ErrMalformedReply)
	}

	if sentiment < 0 || sentiment > 100 {
		return parsedReply{}, fmt.Errorf("%w: sentiment=%v (expected 0-100)", ErrValueOutOfRange, sentiment)
	}
	if confidence < 0 || confidence > 100 {
		return parsedReply{}, fmt.Errorf("%w: confidence=%v (expected 0-100)", ErrValueOutOfRange, confidence)
	}
	return parsedReply{Sentiment: sentiment, Confidence: confidence, Reasoning: reasoning}, nil
}

func numericField(parsed gjson.Result, field string) (float64, error) {
	v := parsed.Get(field)
	if !v.Exists() || v.Type != gjson.Number {
		return 0, fmt.Errorf("%w: %s must be a number", ErrMalformedReply, field)
	}
	n := v.Float()
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: %s=%v is not finite", ErrValueOutOfRange, field, n)
	}
	return n, nil
}
